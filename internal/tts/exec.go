package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
	"github.com/tonelabs/redub/internal/audio"
)

type execSynth struct {
	cmd        []string
	sampleRate int
	mu         sync.Mutex
}

type execRequest struct {
	Text          string  `json:"text"`
	Voice         string  `json:"voice"`
	SampleRate    int     `json:"sample_rate"`
	DurationHint  float64 `json:"duration_hint,omitempty"`
	ReferenceWAV  string  `json:"reference_wav_base64,omitempty"`
	ReferenceText string  `json:"reference_text,omitempty"`
}

type execResponse struct {
	PCMBase64 string `json:"pcm_base64"`
}

func NewExecSynth(command string, sampleRate int) (Synthesizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse tts command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("tts command empty")
	}
	return &execSynth{cmd: args, sampleRate: sampleRate}, nil
}

func (e *execSynth) Synthesize(ctx context.Context, req SynthRequest) (audio.Clip, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload := execRequest{
		Text:         req.Text,
		SampleRate:   e.sampleRate,
		DurationHint: req.DurationHint,
	}
	switch req.Voice.Mode {
	case ModeClone:
		ws := &memWriteSeeker{}
		if err := audio.EncodeWAV(ws, req.Voice.Reference); err != nil {
			return audio.Clip{}, fmt.Errorf("encode reference audio: %w", err)
		}
		payload.Voice = string(ModeClone)
		payload.ReferenceWAV = base64.StdEncoding.EncodeToString(ws.data)
		payload.ReferenceText = req.Voice.ReferenceText
	default:
		payload.Voice = req.Voice.PresetID
	}

	input, err := json.Marshal(payload)
	if err != nil {
		return audio.Clip{}, err
	}

	base := e.cmd[0]
	args := append([]string{}, e.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	cmd.Stdin = bytes.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return audio.Clip{}, fmt.Errorf("tts command failed: %w: %s", err, stderr.String())
	}

	var resp execResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		return audio.Clip{}, fmt.Errorf("decode tts response: %w", err)
	}
	pcm, err := base64.StdEncoding.DecodeString(resp.PCMBase64)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("decode pcm payload: %w", err)
	}
	return audio.DecodePCM16(pcm, e.sampleRate)
}
