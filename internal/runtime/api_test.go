package runtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tonelabs/redub/internal/config"
	"github.com/tonelabs/redub/internal/jobstore"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := jobstore.Open(context.Background(), config.JobStoreConfig{RetentionMode: "ephemeral"}, logger)
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	rt := New(config.Default(), logger)
	rt.store = store
	rt.ready.Store(true)
	return rt
}

func TestSubmitJobQueues(t *testing.T) {
	rt := newTestRuntime(t)
	srv := httptest.NewServer(rt.routes())
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/jobs", "application/json",
		strings.NewReader(`{"video_path":"/videos/talk.mp4","target_language":"fr"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	var job jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if job.ID == "" || job.Status != jobstore.StatusQueued {
		t.Fatalf("unexpected job response: %+v", job)
	}
	if len(rt.queue) != 1 {
		t.Fatalf("expected 1 queued job, got %d", len(rt.queue))
	}

	stored, err := rt.store.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.TargetLanguage != "fr" {
		t.Fatalf("unexpected target language %q", stored.TargetLanguage)
	}
}

func TestSubmitJobRejectsMissingPath(t *testing.T) {
	rt := newTestRuntime(t)
	srv := httptest.NewServer(rt.routes())
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/jobs", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetJobNotFound(t *testing.T) {
	rt := newTestRuntime(t)
	srv := httptest.NewServer(rt.routes())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/jobs/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestReadyEndpoint(t *testing.T) {
	rt := newTestRuntime(t)
	srv := httptest.NewServer(rt.routes())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	rt.ready.Store(false)
	resp, err = http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}
