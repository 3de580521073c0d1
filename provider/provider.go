package provider

import "context"

// Provider is a minimal completion interface for the relevance classifier.
type Provider interface {
	// Complete sends a system+user prompt pair and returns the raw model
	// reply text. Transport and API errors are returned to the caller,
	// which counts them as run failures rather than accepts or rejects.
	Complete(ctx context.Context, system, user string) (string, error)
}
