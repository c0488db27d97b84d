package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tonelabs/redub/internal/audio"
	"github.com/tonelabs/redub/internal/config"
)

// openaiSynth targets OpenAI-compatible chat endpoints with an audio
// modality. Clone mode primes the conversation with the reference transcript
// and its audio so the model continues in the same voice; preset mode pins
// the voice through a system instruction.
type openaiSynth struct {
	cfg        config.TTSConfig
	sampleRate int
	client     *http.Client
}

func NewOpenAISynth(cfg config.TTSConfig, sampleRate int) Synthesizer {
	return &openaiSynth{cfg: cfg, sampleRate: sampleRate, client: http.DefaultClient}
}

type audioContent struct {
	Type       string `json:"type"`
	InputAudio struct {
		Data   string `json:"data"`
		Format string `json:"format"`
	} `json:"input_audio"`
}

type audioChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type audioChatRequest struct {
	Model               string             `json:"model"`
	Messages            []audioChatMessage `json:"messages"`
	Modalities          []string           `json:"modalities"`
	MaxCompletionTokens int                `json:"max_completion_tokens,omitempty"`
	Temperature         float64            `json:"temperature,omitempty"`
	Stream              bool               `json:"stream"`
}

type audioChatResponse struct {
	Choices []struct {
		Message struct {
			Audio *struct {
				Data string `json:"data"`
			} `json:"audio"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *openaiSynth) Synthesize(ctx context.Context, req SynthRequest) (audio.Clip, error) {
	var messages []audioChatMessage
	switch req.Voice.Mode {
	case ModeClone:
		ws := &memWriteSeeker{}
		if err := audio.EncodeWAV(ws, req.Voice.Reference); err != nil {
			return audio.Clip{}, fmt.Errorf("encode reference audio: %w", err)
		}

		var ref audioContent
		ref.Type = "input_audio"
		ref.InputAudio.Data = base64.StdEncoding.EncodeToString(ws.data)
		ref.InputAudio.Format = "wav"

		messages = []audioChatMessage{
			{Role: "user", Content: req.Voice.ReferenceText},
			{Role: "assistant", Content: []audioContent{ref}},
			{Role: "user", Content: req.Text},
		}
	default:
		system := "You are a text-to-speech model. Always use the same clear, natural voice. " +
			"Speak fluently and consistently across all generations. " +
			"Do not include any background noise, effects, or non-speech sounds."
		if req.Voice.PresetID != "" {
			system += " Voice: " + req.Voice.PresetID + "."
		}
		messages = []audioChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: req.Text},
		}
	}

	payload := audioChatRequest{
		Model:               s.cfg.Model,
		Messages:            messages,
		Modalities:          []string{"text", "audio"},
		MaxCompletionTokens: 4096,
		Temperature:         s.cfg.Temperature,
		Stream:              false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return audio.Clip{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return audio.Clip{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return audio.Clip{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return audio.Clip{}, fmt.Errorf("tts endpoint returned status %s", resp.Status)
	}

	var decoded audioChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return audio.Clip{}, fmt.Errorf("decode tts response: %w", err)
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Audio == nil {
		return audio.Clip{}, fmt.Errorf("tts response contained no audio")
	}
	raw, err := base64.StdEncoding.DecodeString(decoded.Choices[0].Message.Audio.Data)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("decode audio payload: %w", err)
	}

	clip, err := audio.DecodeWAV(bytes.NewReader(raw))
	if err != nil {
		// Some gateways return bare PCM rather than a WAV container.
		clip, err = audio.DecodePCM16(raw, s.sampleRate)
		if err != nil {
			return audio.Clip{}, fmt.Errorf("parse audio payload: %w", err)
		}
	}
	return clip, nil
}

type memWriteSeeker struct {
	data []byte
	pos  int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if m.pos+len(p) > len(m.data) {
		grown := make([]byte, m.pos+len(p))
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		m.pos = int(offset)
	case 1:
		m.pos += int(offset)
	case 2:
		m.pos = len(m.data) + int(offset)
	}
	return int64(m.pos), nil
}
