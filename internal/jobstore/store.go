package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tonelabs/redub/internal/config"
	_ "modernc.org/sqlite"
)

// Job statuses move strictly forward: queued, running, then done or failed.
const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// ErrNotFound reports an unknown job id.
var ErrNotFound = errors.New("jobstore: job not found")

// Job is one dubbing request and its lifecycle state. Stats carries the
// JSON-encoded run statistics once the run finishes.
type Job struct {
	ID             string
	VideoPath      string
	TargetLanguage string
	Status         string
	OutputPath     string
	Error          string
	Stats          []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// JobEvent is one recorded step of a job, segment outcomes included.
type JobEvent struct {
	ID        int64
	JobID     string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Store keeps jobs and their event timelines in SQLite. Ephemeral retention
// uses an in-memory database, so state survives within the process but not
// across restarts.
type Store struct {
	db    *sql.DB
	cfg   config.JobStoreConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the job store according to config.
func Open(ctx context.Context, cfg config.JobStoreConfig, log *slog.Logger) (*Store, error) {
	var dsn string
	if cfg.RetentionMode == "ephemeral" {
		dsn = "file:jobstore?mode=memory&cache=shared"
	} else {
		dir := filepath.Dir(cfg.Path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.VacuumOnStart && cfg.RetentionMode != "ephemeral" {
		if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
			log.Warn("job store vacuum failed", slog.String("error", err.Error()))
		}
	}

	if err := s.Prune(ctx); err != nil {
		log.Warn("job store prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS jobs (
    job_id TEXT PRIMARY KEY,
    video_path TEXT NOT NULL,
    target_language TEXT,
    status TEXT NOT NULL,
    output_path TEXT,
    error TEXT,
    stats BLOB,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS job_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id TEXT NOT NULL,
    event_type TEXT,
    payload BLOB,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY(job_id) REFERENCES jobs(job_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_job_events_job_created ON job_events(job_id, created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateJob inserts a new queued job.
func (s *Store) CreateJob(ctx context.Context, job Job) error {
	now := s.clock().UTC()
	if job.Status == "" {
		job.Status = StatusQueued
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs(job_id, video_path, target_language, status, output_path, error, stats, created_at, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.VideoPath, job.TargetLanguage, job.Status, job.OutputPath, job.Error, job.Stats, now, now)
	return err
}

// SetStatus advances a job's status, recording an error message for failures.
func (s *Store) SetStatus(ctx context.Context, jobID, status, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE job_id = ?`,
		status, errMsg, s.clock().UTC(), jobID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Finish marks a job done and records its output and run statistics.
func (s *Store) Finish(ctx context.Context, jobID, outputPath string, stats []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, output_path = ?, stats = ?, updated_at = ? WHERE job_id = ?`,
		StatusDone, outputPath, stats, s.clock().UTC(), jobID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetJob retrieves one job by id.
func (s *Store) GetJob(ctx context.Context, jobID string) (Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT job_id, video_path, target_language, status, output_path, error, stats, created_at, updated_at
		 FROM jobs WHERE job_id = ?`, jobID)
	job, err := scanJob(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return job, err
}

// ListJobs returns the most recent jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, video_path, target_language, status, output_path, error, stats, created_at, updated_at
		 FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// AppendEvent writes one event into a job's timeline.
func (s *Store) AppendEvent(ctx context.Context, evt JobEvent) error {
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_events(job_id, event_type, payload, created_at) VALUES(?, ?, ?, ?)`,
		evt.JobID, evt.Type, evt.Payload, evt.CreatedAt)
	return err
}

// ListJobEvents retrieves up to limit events for a job ordered ascending by time.
func (s *Store) ListJobEvents(ctx context.Context, jobID string, limit int) ([]JobEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, event_type, payload, created_at
		 FROM job_events WHERE job_id = ? ORDER BY created_at ASC, id ASC LIMIT ?`, jobID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []JobEvent
	for rows.Next() {
		var e JobEvent
		var created string
		if err := rows.Scan(&e.ID, &e.JobID, &e.Type, &e.Payload, &created); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = ts
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Prune applies configured retention. Called on startup; the daemon may also
// schedule it.
func (s *Store) Prune(ctx context.Context) error {
	if s.cfg.RetentionMode == "ephemeral" {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour).UTC()
		if _, err = tx.ExecContext(ctx, `DELETE FROM job_events WHERE created_at < ?`, cutoff); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM jobs WHERE created_at < ?`, cutoff); err != nil {
			return err
		}
	}
	if s.cfg.MaxJobs > 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM jobs WHERE job_id IN (
			SELECT job_id FROM jobs ORDER BY created_at DESC LIMIT -1 OFFSET ?
		)`, s.cfg.MaxJobs)
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

func scanJob(scan func(dest ...any) error) (Job, error) {
	var job Job
	var created, updated string
	if err := scan(&job.ID, &job.VideoPath, &job.TargetLanguage, &job.Status, &job.OutputPath, &job.Error, &job.Stats, &created, &updated); err != nil {
		return Job{}, err
	}
	if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
		job.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		job.UpdatedAt = ts
	}
	return job, nil
}
