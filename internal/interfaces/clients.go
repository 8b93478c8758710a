// Package interfaces defines service contracts for FinSight.
package interfaces

import "context"

// LLMClient provides access to the AI provider used for field extraction.
type LLMClient interface {
	// HasCredential reports whether an API key is configured.
	HasCredential() bool

	// GenerateJSON sends a strict-JSON prompt and returns the raw completion
	// text. It does not retry; transient-failure policy belongs to the caller.
	GenerateJSON(ctx context.Context, prompt string) (string, error)

	// Ping performs a cheap liveness check against the provider.
	Ping(ctx context.Context) error

	Close() error
}

// OCREngine recognizes text from a rendered page image.
type OCREngine interface {
	// Available reports whether the engine can run on this host.
	Available() bool

	// Recognize runs OCR over PNG image bytes with a language hint and a
	// page-segmentation mode suited to statement tables.
	Recognize(ctx context.Context, png []byte, lang string) (string, error)
}
