package separation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-shellwords"
)

// ErrDisabled reports that no separation backend is configured.
var ErrDisabled = errors.New("separation: disabled")

// execSeparator shells out to a demucs-style tool. The command receives the
// input path and an output directory and is expected to write vocals.wav and
// background.wav into that directory.
type execSeparator struct {
	cmd []string
	mu  sync.Mutex
}

func NewExecSeparator(command string) (Separator, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse separation command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("separation command is empty")
	}
	return &execSeparator{cmd: args}, nil
}

func (s *execSeparator) Separate(ctx context.Context, audioPath, outDir string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create separation dir: %w", err)
	}

	base := s.cmd[0]
	cmdArgs := append([]string{}, s.cmd[1:]...)
	cmdArgs = append(cmdArgs, "--input", audioPath, "--out", outDir)

	command := exec.CommandContext(ctx, base, cmdArgs...)
	var stderr bytes.Buffer
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return Result{}, fmt.Errorf("separation command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	res := Result{
		VocalsPath:     filepath.Join(outDir, "vocals.wav"),
		BackgroundPath: filepath.Join(outDir, "background.wav"),
	}
	for _, p := range []string{res.VocalsPath, res.BackgroundPath} {
		if _, err := os.Stat(p); err != nil {
			return Result{}, fmt.Errorf("separation output missing: %w", err)
		}
	}
	return res, nil
}
