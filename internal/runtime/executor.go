package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tonelabs/redub/internal/asr"
	"github.com/tonelabs/redub/internal/audio"
	"github.com/tonelabs/redub/internal/config"
	"github.com/tonelabs/redub/internal/dub"
	"github.com/tonelabs/redub/internal/jobstore"
	"github.com/tonelabs/redub/internal/media"
	"github.com/tonelabs/redub/internal/mux"
	"github.com/tonelabs/redub/internal/separation"
	"github.com/tonelabs/redub/internal/transcript"
	"github.com/tonelabs/redub/internal/translate"
	"github.com/tonelabs/redub/internal/tts"
)

// Executor runs one dubbing job end to end: extract, transcribe, translate,
// synthesize and align, assemble, mix, and mux.
type Executor struct {
	cfg         config.Config
	logger      *slog.Logger
	tools       media.Tools
	transcriber asr.Transcriber
	translator  *translate.Translator
	pipeline    *dub.Pipeline
	separator   separation.Separator
	muxer       mux.Muxer
}

// Result is what a finished job reports back.
type Result struct {
	OutputPath   string
	SubtitlePath string
	Stats        dub.RunStats
}

// NewExecutor builds the collaborator set from config. Mock modes keep the
// whole flow runnable without any external binaries or services.
func NewExecutor(cfg config.Config, logger *slog.Logger, observers ...dub.Observer) (*Executor, error) {
	log := logger.With(slog.String("component", "executor"))

	transcriber, err := buildTranscriber(cfg)
	if err != nil {
		return nil, err
	}
	completer, err := buildCompleter(cfg)
	if err != nil {
		return nil, err
	}
	synth, err := buildSynthesizer(cfg)
	if err != nil {
		return nil, err
	}

	var separator separation.Separator = separation.Disabled{}
	if cfg.Separation.Enabled {
		separator, err = separation.NewExecSeparator(cfg.Separation.Command)
		if err != nil {
			return nil, err
		}
	}

	var muxer mux.Muxer
	if cfg.Mux.Enabled {
		muxer = mux.NewFFmpegMuxer(cfg.Mux)
	}

	segmentSynth := dub.NewSegmentSynth(synth, cfg.TTS, logger)
	pipeline := dub.NewPipeline(cfg.Pipeline, segmentSynth, logger, observers...)

	return &Executor{
		cfg:         cfg,
		logger:      log,
		tools:       media.NewTools(cfg.Mux.FFmpegPath, cfg.Mux.FFprobePath),
		transcriber: transcriber,
		translator:  translate.NewTranslator(cfg.Translate, completer, logger),
		pipeline:    pipeline,
		separator:   separator,
		muxer:       muxer,
	}, nil
}

func buildTranscriber(cfg config.Config) (asr.Transcriber, error) {
	switch cfg.ASR.Mode {
	case "exec":
		return asr.NewExecTranscriber(cfg.ASR)
	case "mock":
		return asr.NewMockTranscriber(nil), nil
	default:
		return nil, fmt.Errorf("unknown asr mode %q", cfg.ASR.Mode)
	}
}

func buildCompleter(cfg config.Config) (translate.Completer, error) {
	switch cfg.Translate.Mode {
	case "openai":
		return translate.NewOpenAICompleter(cfg.Translate), nil
	case "exec":
		return translate.NewExecCompleter(cfg.Translate.Command)
	case "mock":
		return translate.NewMockCompleter(), nil
	default:
		return nil, fmt.Errorf("unknown translate mode %q", cfg.Translate.Mode)
	}
}

func buildSynthesizer(cfg config.Config) (tts.Synthesizer, error) {
	switch cfg.TTS.Mode {
	case "openai":
		return tts.NewOpenAISynth(cfg.TTS, cfg.Audio.SampleRate), nil
	case "exec":
		return tts.NewExecSynth(cfg.TTS.Command, cfg.Audio.SampleRate)
	case "mock":
		return tts.NewMockSynth(cfg.Audio.SampleRate), nil
	default:
		return nil, fmt.Errorf("unknown tts mode %q", cfg.TTS.Mode)
	}
}

// Execute runs the whole flow for one job. Per-sentence problems surface in
// the run statistics; any error returned here fails the job.
func (e *Executor) Execute(ctx context.Context, job jobstore.Job) (Result, error) {
	rate := e.cfg.Audio.SampleRate
	log := e.logger.With(slog.String("job_id", job.ID))

	workDir := filepath.Join(e.cfg.WorkDir, job.ID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create work dir: %w", err)
	}
	if !e.cfg.Pipeline.KeepTempFiles {
		defer os.RemoveAll(workDir)
	}

	if dur, err := e.tools.Duration(ctx, job.VideoPath); err != nil {
		log.Warn("probe failed, continuing", slog.String("error", err.Error()))
	} else {
		log.Info("probed input", slog.Float64("duration_seconds", dur))
	}

	fullWav := filepath.Join(workDir, "source.wav")
	if err := e.tools.ExtractAudio(ctx, job.VideoPath, fullWav, rate); err != nil {
		return Result{}, fmt.Errorf("extract audio: %w", err)
	}

	speechWav, background := e.splitStems(ctx, job.VideoPath, fullWav, workDir, rate, log)

	timed, err := e.transcriber.Transcribe(ctx, speechWav)
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: %w", err)
	}
	records := transcript.FromTimedText(timed)
	if len(records) == 0 {
		return Result{}, errors.New("no speech found in source audio")
	}
	log.Info("transcribed source", slog.Int("sentences", len(records)))

	translations := e.translator.TranslateAll(ctx, records, "")
	records = translate.ApplyTranslations(records, translations)

	voice, err := e.resolveVoice(ctx, job.VideoPath, records, workDir, rate, log)
	if err != nil {
		return Result{}, err
	}

	run := &dub.RunContext{
		JobID:          job.ID,
		Sentences:      records,
		Voice:          voice,
		Background:     background,
		BackgroundGain: e.cfg.Mux.BackgroundGain,
	}
	timeline, err := e.pipeline.Run(ctx, run, rate)
	if err != nil {
		return Result{}, fmt.Errorf("assemble dub track: %w", err)
	}

	lang := e.cfg.Translate.TargetLanguage
	base := strings.TrimSuffix(job.VideoPath, filepath.Ext(job.VideoPath))

	dubWav := fmt.Sprintf("%s.dub.%s.wav", base, lang)
	if err := audio.WriteWAV(dubWav, timeline.Clip()); err != nil {
		return Result{}, fmt.Errorf("write dub track: %w", err)
	}

	srtPath := fmt.Sprintf("%s.%s.srt", base, lang)
	if err := transcript.WriteSRT(srtPath, records); err != nil {
		log.Warn("subtitle write failed", slog.String("error", err.Error()))
		srtPath = ""
	}

	outputPath := dubWav
	if e.muxer != nil {
		outputPath = fmt.Sprintf("%s.%s%s", base, lang, filepath.Ext(job.VideoPath))
		req := mux.Request{
			VideoPath:    job.VideoPath,
			AudioPath:    dubWav,
			OutputPath:   outputPath,
			SubtitlePath: srtPath,
		}
		if err := e.muxer.Mux(ctx, req); err != nil {
			return Result{}, fmt.Errorf("mux output: %w", err)
		}
	}

	return Result{OutputPath: outputPath, SubtitlePath: srtPath, Stats: run.Stats}, nil
}

// splitStems tries to separate vocals from background. Separation is never
// fatal: on failure the mixed track feeds the transcriber and a center-cancel
// approximation stands in for the background, and if that fails too the dub
// simply ships without one.
func (e *Executor) splitStems(ctx context.Context, videoPath, fullWav, workDir string, rate int, log *slog.Logger) (string, audio.Clip) {
	if e.cfg.Separation.Enabled {
		res, err := e.separator.Separate(ctx, fullWav, filepath.Join(workDir, "stems"))
		if err == nil {
			bg, readErr := audio.ReadWAV(res.BackgroundPath)
			if readErr != nil {
				log.Warn("background stem unreadable", slog.String("error", readErr.Error()))
				bg = audio.Clip{}
			}
			return res.VocalsPath, bg
		}
		log.Warn("separation failed, using mixed track", slog.String("error", err.Error()))
	}

	bgWav := filepath.Join(workDir, "background.wav")
	if err := e.tools.ExtractBackground(ctx, videoPath, bgWav, rate); err != nil {
		log.Warn("background extraction failed, dubbing without one", slog.String("error", err.Error()))
		return fullWav, audio.Clip{}
	}
	bg, err := audio.ReadWAV(bgWav)
	if err != nil {
		log.Warn("background track unreadable", slog.String("error", err.Error()))
		return fullWav, audio.Clip{}
	}
	return fullWav, bg
}

// resolveVoice builds the voice spec for the run. Clone mode slices the best
// reference sentence out of the original track; any other voice value is
// treated as a preset id.
func (e *Executor) resolveVoice(ctx context.Context, videoPath string, records []transcript.SentenceRecord, workDir string, rate int, log *slog.Logger) (tts.VoiceSpec, error) {
	if e.cfg.TTS.Voice != "clone" {
		return tts.VoiceSpec{Mode: tts.ModePreset, PresetID: e.cfg.TTS.Voice}, nil
	}

	ref, err := transcript.SelectReference(records)
	if err != nil {
		return tts.VoiceSpec{}, fmt.Errorf("select voice reference: %w", err)
	}

	refWav := filepath.Join(workDir, "reference.wav")
	if err := e.tools.ExtractRange(ctx, videoPath, refWav, ref.Start, ref.End, rate); err != nil {
		return tts.VoiceSpec{}, fmt.Errorf("slice voice reference: %w", err)
	}
	clip, err := audio.ReadWAV(refWav)
	if err != nil {
		return tts.VoiceSpec{}, fmt.Errorf("read voice reference: %w", err)
	}
	log.Info("voice reference selected",
		slog.Int("sentence", ref.Index),
		slog.Float64("duration_seconds", ref.Duration()))

	return tts.VoiceSpec{
		Mode:          tts.ModeClone,
		Reference:     clip,
		ReferenceText: ref.SourceText,
	}, nil
}
