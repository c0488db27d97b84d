package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tonelabs/redub/internal/bus"
	"github.com/tonelabs/redub/internal/config"
	"github.com/tonelabs/redub/internal/dub"
	"github.com/tonelabs/redub/internal/jobstore"
	"github.com/tonelabs/redub/internal/natsserver"
	"github.com/tonelabs/redub/internal/protocol"
)

// Runtime is the long-running daemon: it owns the HTTP API, the job store,
// the optional progress bus, and a single job worker draining the queue.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	store       *jobstore.Store
	busClient   *bus.Client
	progress    *bus.ProgressPublisher
	embedded    *natsserver.EmbeddedServer
	executor    *Executor
	httpServer  *http.Server
	metricsSrv  *http.Server
	queue       chan jobstore.Job
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
		queue:  make(chan jobstore.Job, 16),
	}
}

// Start brings the daemon up and blocks until ctx is cancelled.
func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	if r.cfg.Bus.Enabled {
		if err := r.startBus(ctx); err != nil {
			return err
		}
	}

	store, err := jobstore.Open(ctx, r.cfg.JobStore, r.logger)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	r.store = store

	observers := []dub.Observer{&storeObserver{store: store, log: r.logger}}
	if r.progress != nil {
		observers = append(observers, r.progress)
	}
	executor, err := NewExecutor(r.cfg, r.logger, observers...)
	if err != nil {
		return fmt.Errorf("build executor: %w", err)
	}
	r.executor = executor

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runWorker(ctx)
	}()

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	if metricHandler != nil && r.cfg.Telemetry.PrometheusBind != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metricHandler)
		r.metricsSrv = &http.Server{
			Addr:              r.cfg.Telemetry.PrometheusBind,
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				r.logger.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
	}

	r.ready.Store(true)
	r.logger.Info("runtime started", slog.String("addr", addr))

	<-ctx.Done()
	r.logger.Info("runtime stopping")
	r.ready.Store(false)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(shutdownCtx); err != nil {
			r.logger.Error("metrics shutdown error", slog.String("error", err.Error()))
		}
	}
	r.wg.Wait()

	r.busClient.Close()
	r.embedded.Shutdown()
	if err := r.store.Close(); err != nil {
		r.logger.Error("job store close error", slog.String("error", err.Error()))
	}
	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (r *Runtime) startBus(ctx context.Context) error {
	embedded, err := natsserver.Start(r.cfg.Bus, r.cfg.WorkDir, r.logger)
	if err != nil {
		return fmt.Errorf("start embedded nats: %w", err)
	}
	r.embedded = embedded

	busCfg := r.cfg.Bus
	if embedded != nil {
		busCfg.Servers = []string{fmt.Sprintf("nats://127.0.0.1:%d", busCfg.Port)}
	}
	client, err := bus.Connect(ctx, busCfg, r.logger)
	if err != nil {
		r.embedded.Shutdown()
		return fmt.Errorf("connect progress bus: %w", err)
	}
	r.busClient = client
	r.progress = bus.NewProgressPublisher(client, r.logger)
	return nil
}

// runWorker drains the queue one job at a time. Job order is submission
// order; a failed job never blocks the next one. Jobs still queued at
// shutdown stay queued in the store.
func (r *Runtime) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-r.queue:
			r.executeJob(ctx, job)
		}
	}
}

func (r *Runtime) executeJob(ctx context.Context, job jobstore.Job) {
	log := r.logger.With(slog.String("job_id", job.ID))
	if err := r.store.SetStatus(ctx, job.ID, jobstore.StatusRunning, ""); err != nil {
		log.Error("mark running failed", slog.String("error", err.Error()))
	}
	r.publishJobEvent(protocol.SubjectJobStarted, job, "", "")

	result, err := r.executor.Execute(ctx, job)
	if err != nil {
		r.failJob(job, err)
		return
	}

	stats, marshalErr := json.Marshal(result.Stats)
	if marshalErr != nil {
		log.Error("stats marshal failed", slog.String("error", marshalErr.Error()))
	}
	if err := r.store.Finish(context.Background(), job.ID, result.OutputPath, stats); err != nil {
		log.Error("mark done failed", slog.String("error", err.Error()))
	}
	r.publishJobEvent(protocol.SubjectJobFinished, job, result.OutputPath, "")
	log.Info("job finished",
		slog.String("output", result.OutputPath),
		slog.Int("aligned", result.Stats.Aligned),
		slog.Int("best_effort", result.Stats.BestEffort),
		slog.Int("failed", result.Stats.Failed))
}

func (r *Runtime) failJob(job jobstore.Job, cause error) {
	r.logger.Error("job failed",
		slog.String("job_id", job.ID),
		slog.String("error", cause.Error()))
	if err := r.store.SetStatus(context.Background(), job.ID, jobstore.StatusFailed, cause.Error()); err != nil {
		r.logger.Error("mark failed failed",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()))
	}
	r.publishJobEvent(protocol.SubjectJobFailed, job, "", cause.Error())
}

func (r *Runtime) publishJobEvent(subject string, job jobstore.Job, outputPath, errMsg string) {
	if r.progress == nil {
		return
	}
	r.progress.PublishJobEvent(subject, protocol.JobEvent{
		JobID:          job.ID,
		VideoPath:      job.VideoPath,
		TargetLanguage: job.TargetLanguage,
		Status:         statusForSubject(subject),
		OutputPath:     outputPath,
		Error:          errMsg,
	})
}

func statusForSubject(subject string) string {
	switch subject {
	case protocol.SubjectJobQueued:
		return jobstore.StatusQueued
	case protocol.SubjectJobStarted:
		return jobstore.StatusRunning
	case protocol.SubjectJobFinished:
		return jobstore.StatusDone
	case protocol.SubjectJobFailed:
		return jobstore.StatusFailed
	default:
		return ""
	}
}

// storeObserver records pipeline progress into the job's event timeline.
type storeObserver struct {
	store *jobstore.Store
	log   *slog.Logger
}

func (o *storeObserver) OnSegment(jobID string, seg dub.AudioSegment) {
	payload, err := json.Marshal(protocol.SegmentEvent{
		JobID:          jobID,
		Index:          seg.Index,
		StartTime:      seg.StartTime,
		TargetDuration: seg.TargetDuration,
		ActualDuration: seg.ActualDuration(),
		Status:         seg.Status.String(),
		Timestamp:      time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := o.store.AppendEvent(context.Background(), jobstore.JobEvent{JobID: jobID, Type: "segment", Payload: payload}); err != nil {
		o.log.Warn("segment event write failed", slog.String("error", err.Error()))
	}
}

func (o *storeObserver) OnFinish(jobID string, stats dub.RunStats) {
	payload, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := o.store.AppendEvent(context.Background(), jobstore.JobEvent{JobID: jobID, Type: "run_summary", Payload: payload}); err != nil {
		o.log.Warn("run summary write failed", slog.String("error", err.Error()))
	}
}
