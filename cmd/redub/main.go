package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/tonelabs/redub/internal/config"
	"github.com/tonelabs/redub/internal/jobstore"
	"github.com/tonelabs/redub/internal/runtime"
)

var version = "0.1.0-dev"

// redub dubs a single video from the command line, without the daemon.
func main() {
	var (
		configPath  string
		videoPath   string
		targetLang  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "redub.yaml", "Path to configuration file")
	flag.StringVar(&videoPath, "video", "", "Path to the video to dub")
	flag.StringVar(&targetLang, "lang", "", "Target language (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if videoPath == "" {
		logger.Error("missing required flag", slog.String("flag", "-video"))
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if targetLang != "" {
		cfg.Translate.TargetLanguage = targetLang
	}

	executor, err := runtime.NewExecutor(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	job := jobstore.Job{
		ID:             uuid.NewString(),
		VideoPath:      videoPath,
		TargetLanguage: cfg.Translate.TargetLanguage,
	}
	result, err := executor.Execute(ctx, job)
	if err != nil {
		logger.Error("dub failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("dub complete",
		slog.String("output", result.OutputPath),
		slog.Int("sentences", result.Stats.Total),
		slog.Int("aligned", result.Stats.Aligned),
		slog.Int("best_effort", result.Stats.BestEffort),
		slog.Int("failed", result.Stats.Failed),
		slog.Int("skipped", result.Stats.Skipped))
	fmt.Println(result.OutputPath)
}
