package protocol

import "time"

// JobEvent announces a job lifecycle transition on the bus.
type JobEvent struct {
	JobID          string    `json:"job_id"`
	VideoPath      string    `json:"video_path,omitempty"`
	TargetLanguage string    `json:"target_language,omitempty"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	OutputPath     string    `json:"output_path,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// SegmentEvent reports one sentence segment's outcome while a job runs.
type SegmentEvent struct {
	JobID          string    `json:"job_id"`
	Index          int       `json:"index"`
	StartTime      float64   `json:"start_time"`
	TargetDuration float64   `json:"target_duration"`
	ActualDuration float64   `json:"actual_duration"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

// RunSummary carries end-of-run statistics.
type RunSummary struct {
	JobID      string    `json:"job_id"`
	Total      int       `json:"total"`
	Aligned    int       `json:"aligned"`
	BestEffort int       `json:"best_effort"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Timestamp  time.Time `json:"timestamp"`
}

const (
	SubjectJobQueued   = "dub.job.queued"
	SubjectJobStarted  = "dub.job.started"
	SubjectJobFinished = "dub.job.finished"
	SubjectJobFailed   = "dub.job.failed"
	SubjectSegment     = "dub.segment"
	SubjectRunSummary  = "dub.run.summary"
)
