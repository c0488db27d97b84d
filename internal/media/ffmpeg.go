package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Tools shells out to ffmpeg and ffprobe for everything that touches a
// container format. Audio samples only cross this boundary as mono 16-bit
// PCM WAV files at the pipeline sample rate.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

func NewTools(ffmpegPath, ffprobePath string) Tools {
	t := Tools{FFmpeg: ffmpegPath, FFprobe: ffprobePath}
	if t.FFmpeg == "" {
		t.FFmpeg = "ffmpeg"
	}
	if t.FFprobe == "" {
		t.FFprobe = "ffprobe"
	}
	return t
}

// Duration reports the container duration in seconds.
func (t Tools) Duration(ctx context.Context, path string) (float64, error) {
	out, err := t.run(ctx, t.FFprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return 0, err
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", strings.TrimSpace(out), err)
	}
	return dur, nil
}

// ExtractAudio pulls the full audio track into a mono WAV at the given rate.
func (t Tools) ExtractAudio(ctx context.Context, videoPath, outPath string, sampleRate int) error {
	_, err := t.run(ctx, t.FFmpeg,
		"-y", "-i", videoPath,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		outPath)
	return err
}

// ExtractRange slices a time window of the audio track into a mono WAV.
// Used to cut voice reference samples out of the original track.
func (t Tools) ExtractRange(ctx context.Context, inputPath, outPath string, start, end float64, sampleRate int) error {
	if end <= start {
		return fmt.Errorf("invalid range %.2f..%.2f", start, end)
	}
	_, err := t.run(ctx, t.FFmpeg,
		"-y",
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		outPath)
	return err
}

// ExtractBackground approximates a music-and-effects track without a real
// source separator by cancelling the center channel, where dialogue usually
// sits. Only works on stereo sources; mono input yields near-silence, which
// downstream mixing tolerates.
func (t Tools) ExtractBackground(ctx context.Context, videoPath, outPath string, sampleRate int) error {
	_, err := t.run(ctx, t.FFmpeg,
		"-y", "-i", videoPath,
		"-vn",
		"-af", "pan=mono|c0=0.5*FL-0.5*FR",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		outPath)
	return err
}

func (t Tools) run(ctx context.Context, bin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", bin, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
