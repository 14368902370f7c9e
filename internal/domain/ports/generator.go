// Package ports defines interfaces for external service communication.
package ports

import "context"

// Generator defines the interface for narrative generation.
type Generator interface {
	// Generate produces narrative text from a system instruction and a user
	// prompt. An empty completion is an error.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
