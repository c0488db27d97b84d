package translate

import "context"

// Completer is the pluggable language-model backend behind translation.
// A single call takes a system instruction and a user prompt and returns
// the model's text output.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
