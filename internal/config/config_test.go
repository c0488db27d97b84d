package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audio.SampleRate != 24000 {
		t.Fatalf("expected 24kHz default sample rate, got %d", cfg.Audio.SampleRate)
	}
	if cfg.TTS.CloneRetries != 3 || cfg.TTS.PresetRetries != 10 {
		t.Fatalf("unexpected default retry budgets: %d/%d", cfg.TTS.CloneRetries, cfg.TTS.PresetRetries)
	}
	if cfg.Translate.WordsPerSecond != 2.5 {
		t.Fatalf("expected 2.5 words/s default, got %v", cfg.Translate.WordsPerSecond)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REDUB_AUDIO_SAMPLE_RATE", "16000")
	t.Setenv("REDUB_TTS_VOICE", "warm-female")
	t.Setenv("REDUB_TTS_CLONE_RETRIES", "5")
	t.Setenv("REDUB_MUX_BACKGROUND_GAIN", "0.15")
	t.Setenv("REDUB_PIPELINE_WORKERS", "4")
	t.Setenv("REDUB_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("REDUB_JOB_STORE_RETENTION_MODE", "persistent")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("expected sample rate override, got %d", cfg.Audio.SampleRate)
	}
	if cfg.TTS.Voice != "warm-female" {
		t.Fatalf("expected voice override, got %q", cfg.TTS.Voice)
	}
	if cfg.TTS.CloneRetries != 5 {
		t.Fatalf("expected clone retries override, got %d", cfg.TTS.CloneRetries)
	}
	if cfg.Mux.BackgroundGain != 0.15 {
		t.Fatalf("expected background gain override, got %v", cfg.Mux.BackgroundGain)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Fatalf("expected workers override, got %d", cfg.Pipeline.Workers)
	}
	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.JobStore.RetentionMode != "persistent" {
		t.Fatalf("expected retention mode override, got %q", cfg.JobStore.RetentionMode)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Audio.Channels = 2
	if err := validate(cfg); err == nil {
		t.Fatal("expected error for stereo channels")
	}

	cfg = Default()
	cfg.TTS.Mode = "exec"
	if err := validate(cfg); err == nil {
		t.Fatal("expected error for exec mode without command")
	}

	cfg = Default()
	cfg.Mux.BackgroundGain = 1.5
	if err := validate(cfg); err == nil {
		t.Fatal("expected error for out-of-range gain")
	}
}
