package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ── Errors ───────────────────────────────────────────────────────────────────

// Errors maps a field to its failure messages.
// JSON output: {"field": ["msg1", "msg2"]}
type Errors map[string][]string

func (e Errors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Has returns true if there are any errors.
func (e Errors) Has() bool { return len(e) > 0 }

// First returns the first error for a field.
func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Error joins every message, ordered by field.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var msgs []string
	for _, f := range fields {
		msgs = append(msgs, e[f]...)
	}
	return strings.Join(msgs, " ")
}

// ── Validator ────────────────────────────────────────────────────────────────

// Rules is a map of field → pipe-separated rule string.
//
//	Rules{"APP_PORT": "required|integer|range:1,65535", "LOG_FORMAT": "in:text,json"}
//
// Rules other than required skip empty values. The first failing rule of a
// field stops the rest.
type Rules map[string]string

// Validate checks data against rules and returns Errors, or nil when
// everything passes.
func Validate(data map[string]string, rules Rules) error {
	errs := Errors{}
	for field, spec := range rules {
		value := data[field]
		for _, rule := range strings.Split(spec, "|") {
			name, param, _ := strings.Cut(strings.TrimSpace(rule), ":")
			if name == "" || (name != "required" && value == "") {
				continue
			}
			fn, ok := checks[name]
			if !ok {
				panic(fmt.Sprintf("validation: unknown rule %q for %s", name, field))
			}
			if msg, ok := fn(value, param); !ok {
				errs.add(field, fmt.Sprintf(msg, field))
				break
			}
		}
	}
	if errs.Has() {
		return errs
	}
	return nil
}

// check reports whether value passes. On failure it returns a message with
// one %s verb for the field name.
type check func(value, param string) (string, bool)

var alphaDash = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var checks = map[string]check{
	"required": func(v, _ string) (string, bool) {
		return "The %s field is required.", strings.TrimSpace(v) != ""
	},
	"integer": func(v, _ string) (string, bool) {
		_, err := strconv.Atoi(v)
		return "The %s must be an integer.", err == nil
	},
	"numeric": func(v, _ string) (string, bool) {
		_, err := strconv.ParseFloat(v, 64)
		return "The %s must be a number.", err == nil
	},
	"range": func(v, p string) (string, bool) {
		lo, hi, _ := strings.Cut(p, ",")
		n, err := strconv.ParseFloat(v, 64)
		lower, _ := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		upper, _ := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		return "The %s must be between " + lo + " and " + hi + ".", err == nil && n >= lower && n <= upper
	},
	"min": func(v, p string) (string, bool) {
		n, _ := strconv.Atoi(p)
		return "The %s must be at least " + p + " characters.", utf8.RuneCountInString(v) >= n
	},
	"max": func(v, p string) (string, bool) {
		n, _ := strconv.Atoi(p)
		return "The %s may not be greater than " + p + " characters.", utf8.RuneCountInString(v) <= n
	},
	"in": func(v, p string) (string, bool) {
		for _, a := range strings.Split(p, ",") {
			if strings.TrimSpace(a) == v {
				return "", true
			}
		}
		return "The selected %s is invalid.", false
	},
	"alpha_dash": func(v, _ string) (string, bool) {
		return "The %s may only contain letters, numbers, dashes and underscores.", alphaDash.MatchString(v)
	},
	"url": func(v, _ string) (string, bool) {
		u, err := url.Parse(v)
		return "The %s must be a valid URL.", err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	},
}
