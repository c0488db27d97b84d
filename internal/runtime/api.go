package runtime

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tonelabs/redub/internal/jobstore"
	"github.com/tonelabs/redub/internal/protocol"
)

type submitRequest struct {
	VideoPath      string `json:"video_path"`
	TargetLanguage string `json:"target_language,omitempty"`
}

type jobResponse struct {
	ID             string          `json:"id"`
	VideoPath      string          `json:"video_path"`
	TargetLanguage string          `json:"target_language,omitempty"`
	Status         string          `json:"status"`
	OutputPath     string          `json:"output_path,omitempty"`
	Error          string          `json:"error,omitempty"`
	Stats          json.RawMessage `json:"stats,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (r *Runtime) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	mux.HandleFunc("POST /jobs", r.handleSubmitJob)
	mux.HandleFunc("GET /jobs", r.handleListJobs)
	mux.HandleFunc("GET /jobs/{id}", r.handleGetJob)
	mux.HandleFunc("GET /jobs/{id}/events", r.handleJobEvents)
	return mux
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}

func (r *Runtime) handleSubmitJob(w http.ResponseWriter, req *http.Request) {
	var body submitRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.VideoPath == "" {
		httpError(w, http.StatusBadRequest, "video_path is required")
		return
	}
	lang := body.TargetLanguage
	if lang == "" {
		lang = r.cfg.Translate.TargetLanguage
	}

	job := jobstore.Job{
		ID:             uuid.NewString(),
		VideoPath:      body.VideoPath,
		TargetLanguage: lang,
		Status:         jobstore.StatusQueued,
	}
	if err := r.store.CreateJob(req.Context(), job); err != nil {
		r.logger.Error("job create failed", slog.String("error", err.Error()))
		httpError(w, http.StatusInternalServerError, "job create failed")
		return
	}
	r.publishJobEvent(protocol.SubjectJobQueued, job, "", "")

	select {
	case r.queue <- job:
	default:
		if err := r.store.SetStatus(req.Context(), job.ID, jobstore.StatusFailed, "queue full"); err != nil {
			r.logger.Error("mark failed failed", slog.String("error", err.Error()))
		}
		httpError(w, http.StatusServiceUnavailable, "queue full")
		return
	}

	writeJSON(w, http.StatusAccepted, toJobResponse(job))
}

func (r *Runtime) handleGetJob(w http.ResponseWriter, req *http.Request) {
	job, err := r.store.GetJob(req.Context(), req.PathValue("id"))
	if errors.Is(err, jobstore.ErrNotFound) {
		httpError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "job lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (r *Runtime) handleListJobs(w http.ResponseWriter, req *http.Request) {
	jobs, err := r.store.ListJobs(req.Context(), 50)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "job list failed")
		return
	}
	out := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobResponse(job))
	}
	writeJSON(w, http.StatusOK, out)
}

func (r *Runtime) handleJobEvents(w http.ResponseWriter, req *http.Request) {
	jobID := req.PathValue("id")
	if _, err := r.store.GetJob(req.Context(), jobID); errors.Is(err, jobstore.ErrNotFound) {
		httpError(w, http.StatusNotFound, "job not found")
		return
	} else if err != nil {
		httpError(w, http.StatusInternalServerError, "job lookup failed")
		return
	}

	events, err := r.store.ListJobEvents(req.Context(), jobID, 500)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "event list failed")
		return
	}
	type eventResponse struct {
		Type      string          `json:"type"`
		Payload   json.RawMessage `json:"payload,omitempty"`
		CreatedAt time.Time       `json:"created_at"`
	}
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{Type: e.Type, Payload: e.Payload, CreatedAt: e.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func toJobResponse(job jobstore.Job) jobResponse {
	return jobResponse{
		ID:             job.ID,
		VideoPath:      job.VideoPath,
		TargetLanguage: job.TargetLanguage,
		Status:         job.Status,
		OutputPath:     job.OutputPath,
		Error:          job.Error,
		Stats:          job.Stats,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
