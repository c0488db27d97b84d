package dub

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tonelabs/redub/internal/audio"
	"github.com/tonelabs/redub/internal/config"
	"github.com/tonelabs/redub/internal/transcript"
	"github.com/tonelabs/redub/internal/tts"
)

// RunContext carries everything one dubbing run needs: the translated
// sentence list, the voice to synthesize with, the optional background
// track, and the accumulated statistics. No ambient globals.
type RunContext struct {
	JobID          string
	Sentences      []transcript.SentenceRecord
	Voice          tts.VoiceSpec
	Background     audio.Clip
	BackgroundGain float64
	Stats          RunStats
}

// RunStats summarizes per-sentence outcomes so a human can decide whether
// to regenerate specific sentences.
type RunStats struct {
	Total      int `json:"total"`
	Aligned    int `json:"aligned"`
	BestEffort int `json:"best_effort"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
	RatioGood  int `json:"ratio_good"`
	RatioLong  int `json:"ratio_long"`
	RatioShort int `json:"ratio_short"`
}

func (s *RunStats) record(seg AudioSegment, skipped bool) {
	s.Total++
	if skipped {
		s.Skipped++
		return
	}
	switch seg.Status {
	case StatusAligned:
		s.Aligned++
	case StatusBestEffort:
		s.BestEffort++
	case StatusFailed:
		s.Failed++
		return
	}
	if seg.TargetDuration <= 0 {
		return
	}
	ratio := seg.ActualDuration() / seg.TargetDuration
	switch {
	case math.Abs(ratio-1) <= 0.3:
		s.RatioGood++
	case ratio > 1.3:
		s.RatioLong++
	default:
		s.RatioShort++
	}
}

// Observer receives per-segment and end-of-run notifications. Used by the
// job store and the progress bus; implementations must be cheap.
type Observer interface {
	OnSegment(jobID string, seg AudioSegment)
	OnFinish(jobID string, stats RunStats)
}

// Pipeline sequences synthesis, alignment, assembly, and mixing for a run.
// Sentences are processed in transcript order, sequentially by default with
// a rate-limit pause between external calls, or by a bounded worker pool.
// All segments are joined before assembly regardless of worker count.
type Pipeline struct {
	cfg       config.PipelineConfig
	synth     *SegmentSynth
	logger    *slog.Logger
	observers []Observer
	sleep     func(time.Duration)

	segmentCounter metric.Int64Counter
}

func NewPipeline(cfg config.PipelineConfig, synth *SegmentSynth, log *slog.Logger, observers ...Observer) *Pipeline {
	meter := otel.Meter("github.com/tonelabs/redub/internal/dub")
	segments, _ := meter.Int64Counter("redub.segments",
		metric.WithDescription("Sentence segments processed, by final status"))
	return &Pipeline{
		cfg:            cfg,
		synth:          synth,
		logger:         log.With(slog.String("component", "pipeline")),
		observers:      observers,
		sleep:          time.Sleep,
		segmentCounter: segments,
	}
}

// Run produces the final timeline for the run context. Per-sentence
// failures leave silence gaps and never abort the run; only cancellation
// and run-level assembly errors do.
func (p *Pipeline) Run(ctx context.Context, run *RunContext, sampleRate int) (Timeline, error) {
	totalDuration := transcript.TotalDuration(run.Sentences)

	segments := make([]AudioSegment, len(run.Sentences))
	if p.cfg.Workers > 1 {
		if err := p.runParallel(ctx, run, segments); err != nil {
			return Timeline{}, err
		}
	} else {
		if err := p.runSequential(ctx, run, segments); err != nil {
			return Timeline{}, err
		}
	}

	for i, seg := range segments {
		skipped := run.Sentences[i].Translated == ""
		run.Stats.record(seg, skipped)
	}

	tl, err := Assemble(segments, totalDuration, sampleRate, p.logger)
	if err != nil {
		return Timeline{}, err
	}
	if !run.Background.Empty() {
		tl = Mix(tl, run.Background, run.BackgroundGain)
	}

	p.logger.Info("run complete",
		slog.Int("sentences", run.Stats.Total),
		slog.Int("aligned", run.Stats.Aligned),
		slog.Int("best_effort", run.Stats.BestEffort),
		slog.Int("failed", run.Stats.Failed),
		slog.Int("skipped", run.Stats.Skipped))
	for _, obs := range p.observers {
		obs.OnFinish(run.JobID, run.Stats)
	}
	return tl, nil
}

func (p *Pipeline) runSequential(ctx context.Context, run *RunContext, segments []AudioSegment) error {
	for i, rec := range run.Sentences {
		// Abort between sentences, never mid-call.
		if err := ctx.Err(); err != nil {
			return err
		}
		segments[i] = p.processSentence(ctx, run, rec)
		if p.cfg.SentencePauseMS > 0 && i < len(run.Sentences)-1 {
			p.sleep(time.Duration(p.cfg.SentencePauseMS) * time.Millisecond)
		}
	}
	return nil
}

func (p *Pipeline) runParallel(ctx context.Context, run *RunContext, segments []AudioSegment) error {
	sem := make(chan struct{}, p.cfg.Workers)
	var wg sync.WaitGroup
	for i, rec := range run.Sentences {
		if err := ctx.Err(); err != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, rec transcript.SentenceRecord) {
			defer wg.Done()
			defer func() { <-sem }()
			segments[i] = p.processSentence(ctx, run, rec)
		}(i, rec)
	}
	// Join barrier: assembly must see every segment.
	wg.Wait()
	return ctx.Err()
}

func (p *Pipeline) processSentence(ctx context.Context, run *RunContext, rec transcript.SentenceRecord) AudioSegment {
	seg := AudioSegment{
		Index:          rec.Index,
		StartTime:      rec.Start,
		TargetDuration: rec.Duration(),
		Status:         StatusFailed,
	}

	if rec.Translated == "" {
		p.logger.Info("skipping untranslated sentence", slog.Int("index", rec.Index))
		p.notify(run.JobID, seg)
		return seg
	}

	clip, accepted, err := p.synth.Generate(ctx, rec.Translated, run.Voice, rec.Duration())
	if err != nil {
		p.logger.Warn("sentence synthesis failed, leaving silence",
			slog.Int("index", rec.Index),
			slog.String("error", err.Error()))
		p.notify(run.JobID, seg)
		return seg
	}
	if !accepted {
		p.logger.Warn("using best-effort clip",
			slog.Int("index", rec.Index),
			slog.Float64("clip_seconds", clip.Duration()))
	}

	seg = Align(clip, rec.Index, rec.Start, rec.Duration(), p.logger)
	p.notify(run.JobID, seg)
	return seg
}

func (p *Pipeline) notify(jobID string, seg AudioSegment) {
	p.segmentCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("status", seg.Status.String())))
	for _, obs := range p.observers {
		obs.OnSegment(jobID, seg)
	}
}
