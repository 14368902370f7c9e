package mocks

import "context"

// Generator is a mock implementation of ports.Generator.
type Generator struct {
	Summary string
	Err     error

	// Call tracking
	GenerateCallCount int
	LastSystemPrompt  string
	LastUserPrompt    string
}

// Generate returns the configured summary or error.
func (m *Generator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.GenerateCallCount++
	m.LastSystemPrompt = systemPrompt
	m.LastUserPrompt = userPrompt
	if m.Err != nil {
		return "", m.Err
	}
	return m.Summary, nil
}
