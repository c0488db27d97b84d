package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
	"github.com/tonelabs/redub/internal/config"
	"github.com/tonelabs/redub/internal/transcript"
)

type execTranscriber struct {
	cmd []string
	cfg config.ASRConfig
	mu  sync.Mutex
}

type execSegment struct {
	Text    string `json:"text"`
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
}

func NewExecTranscriber(cfg config.ASRConfig) (Transcriber, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse asr command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("asr command is empty")
	}
	return &execTranscriber{cmd: args, cfg: cfg}, nil
}

func (r *execTranscriber) Transcribe(ctx context.Context, audioPath string) ([]transcript.TimedText, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := r.cmd[0]
	cmdArgs := append([]string{}, r.cmd[1:]...)
	cmdArgs = append(cmdArgs, "--audio", audioPath)
	if r.cfg.Language != "" {
		cmdArgs = append(cmdArgs, "--language", r.cfg.Language)
	}

	command := exec.CommandContext(ctx, base, cmdArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return nil, fmt.Errorf("asr command failed: %w: %s", err, stderr.String())
	}

	var segments []execSegment
	if err := json.Unmarshal(stdout.Bytes(), &segments); err != nil {
		return nil, fmt.Errorf("decode asr response: %w", err)
	}

	out := make([]transcript.TimedText, 0, len(segments))
	for _, seg := range segments {
		out = append(out, transcript.TimedText{Text: seg.Text, StartMS: seg.StartMS, EndMS: seg.EndMS})
	}
	return out, nil
}
