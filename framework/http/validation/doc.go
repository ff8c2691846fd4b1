// Package validation checks flat string inputs against pipe-separated rules.
//
//	err := validation.Validate(map[string]string{
//	    "subject": body.Subject,
//	}, validation.Rules{
//	    "subject": "required|max:64",
//	})
//
//	var errs validation.Errors
//	if errors.As(err, &errs) {
//	    res.ValidationError(errs) // 422 {"message": ..., "errors": {"subject": [...]}}
//	}
//
// # Available Rules
//
//   - required     non-blank
//   - integer      parses as an int
//   - numeric      parses as a float
//   - range:lo,hi  numeric value within [lo, hi]
//   - min:n, max:n length bounds in runes
//   - in:a,b,c     one of the listed values
//   - alpha_dash   letters, digits, dashes and underscores
//   - url          absolute http or https URL
//
// An unknown rule name panics: rules are written by the programmer, not the
// client.
package validation
