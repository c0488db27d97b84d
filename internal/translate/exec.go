package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

type execCompleter struct {
	cmd []string
	mu  sync.Mutex
}

type execPayload struct {
	System string `json:"system"`
	Prompt string `json:"prompt"`
}

type execResult struct {
	Content string `json:"content"`
}

func NewExecCompleter(command string) (Completer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse translate command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("translate command empty")
	}
	return &execCompleter{cmd: args}, nil
}

func (c *execCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	input, err := json.Marshal(execPayload{System: system, Prompt: prompt})
	if err != nil {
		return "", err
	}

	base := c.cmd[0]
	args := append([]string{}, c.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	cmd.Stdin = bytes.NewReader(input)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("translate exec command failed: %w", err)
	}

	var resp execResult
	if err := json.Unmarshal(output, &resp); err != nil {
		return "", fmt.Errorf("decode translate exec response: %w", err)
	}
	return resp.Content, nil
}
