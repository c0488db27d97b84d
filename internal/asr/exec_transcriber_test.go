package asr

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/tonelabs/redub/internal/config"
)

func TestExecTranscriberParsesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	script := filepath.Join(t.TempDir(), "asr.sh")
	body := "#!/bin/sh\necho '[{\"text\":\"hello there\",\"start_ms\":0,\"end_ms\":1200},{\"text\":\"bye\",\"start_ms\":1200,\"end_ms\":2000}]'\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	tr, err := NewExecTranscriber(config.ASRConfig{Mode: "exec", Command: script, Language: "en"})
	if err != nil {
		t.Fatalf("build transcriber: %v", err)
	}

	segments, err := tr.Transcribe(context.Background(), "/tmp/in.wav")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Text != "hello there" || segments[0].EndMS != 1200 {
		t.Fatalf("unexpected first segment: %+v", segments[0])
	}
}

func TestExecTranscriberReportsFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	script := filepath.Join(t.TempDir(), "asr.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 'model not found' >&2\nexit 3\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	tr, err := NewExecTranscriber(config.ASRConfig{Mode: "exec", Command: script})
	if err != nil {
		t.Fatalf("build transcriber: %v", err)
	}
	if _, err := tr.Transcribe(context.Background(), "/tmp/in.wav"); err == nil {
		t.Fatal("expected an error from a failing command")
	}
}

func TestNewExecTranscriberRejectsEmptyCommand(t *testing.T) {
	if _, err := NewExecTranscriber(config.ASRConfig{Mode: "exec", Command: ""}); err == nil {
		t.Fatal("expected an error for an empty command")
	}
}
