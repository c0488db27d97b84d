package jobstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/tonelabs/redub/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenEphemeral(t *testing.T) {
	cfg := config.JobStoreConfig{RetentionMode: "ephemeral"}
	st, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.CreateJob(context.Background(), Job{ID: "job-1", VideoPath: "/tmp/in.mp4"}); err != nil {
		t.Fatalf("create job: %v", err)
	}
	job, err := st.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != StatusQueued {
		t.Fatalf("expected queued, got %s", job.Status)
	}
}

func TestJobLifecycle(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.JobStoreConfig{Path: filepath.Join(tmp, "jobs.db"), RetentionMode: "session"}
	st, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	job := Job{ID: "job-42", VideoPath: "/videos/talk.mp4", TargetLanguage: "fr"}
	if err := st.CreateJob(context.Background(), job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := st.SetStatus(context.Background(), "job-42", StatusRunning, ""); err != nil {
		t.Fatalf("set running: %v", err)
	}
	if err := st.AppendEvent(context.Background(), JobEvent{JobID: "job-42", Type: "segment", Payload: []byte(`{"index":0}`)}); err != nil {
		t.Fatalf("append event: %v", err)
	}
	if err := st.Finish(context.Background(), "job-42", "/videos/talk.fr.mp4", []byte(`{"aligned":1}`)); err != nil {
		t.Fatalf("finish: %v", err)
	}

	got, err := st.GetJob(context.Background(), "job-42")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != StatusDone {
		t.Fatalf("expected done, got %s", got.Status)
	}
	if got.OutputPath != "/videos/talk.fr.mp4" {
		t.Fatalf("unexpected output path %q", got.OutputPath)
	}

	events, err := st.ListJobEvents(context.Background(), "job-42", 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].Type != "segment" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestSetStatusUnknownJob(t *testing.T) {
	cfg := config.JobStoreConfig{RetentionMode: "ephemeral"}
	st, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.SetStatus(context.Background(), "missing", StatusFailed, "boom"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPruneByDaysAndJobs(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.JobStoreConfig{Path: filepath.Join(tmp, "jobs.db"), RetentionMode: "persistent", RetentionDays: 1, MaxJobs: 1}
	st, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	st.clock = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := st.CreateJob(context.Background(), Job{ID: "old-job", VideoPath: "/a.mp4"}); err != nil {
		t.Fatalf("create job: %v", err)
	}

	st.clock = func() time.Time { return time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := st.CreateJob(context.Background(), Job{ID: "new-job", VideoPath: "/b.mp4"}); err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := st.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	if _, err := st.GetJob(context.Background(), "old-job"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected old job pruned, got %v", err)
	}
	if _, err := st.GetJob(context.Background(), "new-job"); err != nil {
		t.Fatalf("new job should survive: %v", err)
	}
}
