package marketapi

import (
	"fmt"
	"strings"
)

// maxPreview bounds the body excerpt kept on errors, in characters.
const maxPreview = 200

// FetchError is returned when a request fails or its body does not parse.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s", e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": http %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, " (body: %q)", e.Body)
	}
	return b.String()
}

func (e *FetchError) Unwrap() error { return e.Err }

// EmptyCatalogError is returned when the catalog parses but lists no items.
type EmptyCatalogError struct {
	URL string
}

func (e *EmptyCatalogError) Error() string {
	return fmt.Sprintf("catalog at %s returned no items", e.URL)
}

// ProbeAttempt is the outcome of probing one candidate base URL.
type ProbeAttempt struct {
	Base       string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

// ResolutionError is returned when no candidate base URL answers.
type ResolutionError struct {
	Nominal  string
	Attempts []ProbeAttempt
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no working API base found for %s; tried %d candidates:", e.Nominal, len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  %s -> status %d", a.URL, a.StatusCode)
		if a.Err != nil {
			fmt.Fprintf(&b, ", error: %v", a.Err)
		}
		if a.Body != "" {
			fmt.Fprintf(&b, ", body: %q", a.Body)
		}
	}
	return b.String()
}

// preview returns at most maxPreview characters of body.
func preview(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= maxPreview {
		return s
	}
	r := []rune(s)
	if len(r) <= maxPreview {
		return s
	}
	return string(r[:maxPreview])
}
