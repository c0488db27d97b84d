package mux

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tonelabs/redub/internal/config"
)

// Request describes one mux: the original video, the assembled dub track,
// and where the result goes. SubtitlePath is optional and only honored when
// subtitle burning is enabled.
type Request struct {
	VideoPath    string
	AudioPath    string
	OutputPath   string
	SubtitlePath string
}

// Muxer replaces a video's audio track with the dubbed one.
type Muxer interface {
	Mux(ctx context.Context, req Request) error
}

type ffmpegMuxer struct {
	cfg config.MuxConfig
}

func NewFFmpegMuxer(cfg config.MuxConfig) Muxer {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	return &ffmpegMuxer{cfg: cfg}
}

// Mux copies the video stream untouched and encodes the dub track to AAC.
// -shortest trims to the shorter of the two streams so a slightly short dub
// never freezes the final frame.
func (m *ffmpegMuxer) Mux(ctx context.Context, req Request) error {
	args := []string{
		"-y",
		"-i", req.VideoPath,
		"-i", req.AudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
	}
	if m.cfg.BurnSubtitles && req.SubtitlePath != "" {
		args = append(args,
			"-vf", fmt.Sprintf("subtitles=%s:force_style='FontSize=20,Outline=1'", escapeFilterPath(req.SubtitlePath)),
			"-c:v", "libx264")
	} else {
		args = append(args, "-c:v", "copy")
	}
	args = append(args,
		"-c:a", "aac",
		"-shortest",
		req.OutputPath)

	cmd := exec.CommandContext(ctx, m.cfg.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mux failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// escapeFilterPath quotes characters the ffmpeg filter parser treats
// specially in filenames.
func escapeFilterPath(p string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`, `,`, `\,`, `[`, `\[`, `]`, `\]`)
	return r.Replace(p)
}
