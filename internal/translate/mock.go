package translate

import (
	"context"
	"strings"
)

type mockCompleter struct{}

func NewMockCompleter() Completer { return &mockCompleter{} }

func (m *mockCompleter) Complete(_ context.Context, _ string, prompt string) (string, error) {
	return "[mock completion for " + strings.TrimSpace(prompt) + "]", nil
}
