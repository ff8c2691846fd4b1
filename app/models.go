// Package app is the demo application: a mutable greeting behind a
// reader-writer lock and an object-store client built per request.
package app

import (
	"fmt"
	"strings"
)

// AppState is the application's mutable state, bound behind an RWLock.
type AppState struct {
	Greeting string `json:"greeting"`
	Subject  string `json:"subject"`
}

// Message renders the greeting, e.g. "hello world!".
func (s AppState) Message() string {
	return s.Greeting + " " + s.Subject + "!"
}

// RequestInfo describes the request being served. It is built by a factory
// from the per-request values the router overlays.
type RequestInfo struct {
	ID     string
	Method string
	Path   string
}

// S3Client is a stand-in object-store client. It is bound as a factory, so
// every handler receives its own instance.
type S3Client struct {
	Bucket string
	Region string
}

// ListObjects returns the object keys under prefix.
func (c S3Client) ListObjects(prefix string) []string {
	keys := []string{"greetings/hello.txt", "greetings/penguins.txt", "state/snapshot.json"}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, c.url(k))
		}
	}
	return out
}

// GetObject returns the location an object would be fetched from.
func (c S3Client) GetObject(key string) string {
	return c.url(key)
}

func (c S3Client) url(key string) string {
	return fmt.Sprintf("s3://%s/%s", c.Bucket, key)
}
