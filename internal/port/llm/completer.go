// Package llm defines the port for the generative model that synthesizes answers.
package llm

import "context"

// Completion is the model output for one prompt.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Completer sends a single prompt to a model and returns its answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)
}
