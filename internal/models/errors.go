package models

import "errors"

// Extraction pipeline error taxonomy. Fatal errors are wrapped with
// diagnostic context at the point of failure; callers test with errors.Is.
var (
	// ErrNotFound means the input PDF path does not exist. Always fatal.
	ErrNotFound = errors.New("source document not found")

	// ErrMissingCredential means forced-AI mode was requested without an
	// API key configured. Fatal only in forced mode.
	ErrMissingCredential = errors.New("ai credential not configured")

	// ErrExtractionFailed means the AI stage produced no usable result in
	// forced mode.
	ErrExtractionFailed = errors.New("ai extraction produced no usable result")

	// ErrMalformedResponse means the AI response was not valid JSON after
	// cleanup. Upstream treats it as ErrExtractionFailed.
	ErrMalformedResponse = errors.New("ai response is not valid JSON")
)
