package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type Config struct {
	ServiceName string           `yaml:"service_name"`
	Environment string           `yaml:"environment"`
	WorkDir     string           `yaml:"work_dir"`
	HTTP        HTTPConfig       `yaml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Bus         BusConfig        `yaml:"bus"`
	JobStore    JobStoreConfig   `yaml:"job_store"`
	Audio       AudioConfig      `yaml:"audio"`
	ASR         ASRConfig        `yaml:"asr"`
	Translate   TranslateConfig  `yaml:"translate"`
	TTS         TTSConfig        `yaml:"tts"`
	Separation  SeparationConfig `yaml:"separation"`
	Mux         MuxConfig        `yaml:"mux"`
	Pipeline    PipelineConfig   `yaml:"pipeline"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type JobStoreConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxJobs       int    `yaml:"max_jobs"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

// AudioConfig fixes the PCM format used across the whole pipeline.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
}

type ASRConfig struct {
	Mode     string `yaml:"mode"` // mock, exec
	Command  string `yaml:"command"`
	Language string `yaml:"language"`
}

type TranslateConfig struct {
	Mode           string  `yaml:"mode"` // mock, openai, exec
	Endpoint       string  `yaml:"endpoint"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	Command        string  `yaml:"command"`
	TargetLanguage string  `yaml:"target_language"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	WordsPerSecond float64 `yaml:"words_per_second"`
	AdjustLength   bool    `yaml:"adjust_length"`
	PauseMS        int     `yaml:"pause_ms"`
}

type TTSConfig struct {
	Mode           string  `yaml:"mode"` // mock, openai, exec
	Endpoint       string  `yaml:"endpoint"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	Command        string  `yaml:"command"`
	Voice          string  `yaml:"voice"` // "clone" or a preset voice id
	Temperature    float64 `yaml:"temperature"`
	TimeoutMS      int     `yaml:"timeout_ms"`
	CloneRetries   int     `yaml:"clone_retries"`
	PresetRetries  int     `yaml:"preset_retries"`
	RetryBackoffMS int     `yaml:"retry_backoff_ms"`
	MaxClipSeconds float64 `yaml:"max_clip_seconds"`
}

type SeparationConfig struct {
	Enabled bool   `yaml:"enabled"`
	Command string `yaml:"command"`
}

type MuxConfig struct {
	Enabled        bool    `yaml:"enabled"`
	FFmpegPath     string  `yaml:"ffmpeg_path"`
	FFprobePath    string  `yaml:"ffprobe_path"`
	BurnSubtitles  bool    `yaml:"burn_subtitles"`
	BackgroundGain float64 `yaml:"background_gain"`
}

type PipelineConfig struct {
	Workers         int  `yaml:"workers"`
	SentencePauseMS int  `yaml:"sentence_pause_ms"`
	KeepTempFiles   bool `yaml:"keep_temp_files"`
}

func Default() Config {
	return Config{
		ServiceName: "redub",
		Environment: "development",
		WorkDir:     "./data/work",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		JobStore: JobStoreConfig{
			Path:          "./data/redub-jobs.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxJobs:       10000,
		},
		Audio: AudioConfig{
			SampleRate: 24000,
			Channels:   1,
		},
		ASR: ASRConfig{
			Mode: "mock",
		},
		Translate: TranslateConfig{
			Mode:           "mock",
			Endpoint:       "http://localhost:11434/v1",
			Model:          "qwen3-32b",
			TargetLanguage: "English",
			Temperature:    0.3,
			MaxTokens:      100,
			WordsPerSecond: 2.5,
			AdjustLength:   true,
			PauseMS:        300,
		},
		TTS: TTSConfig{
			Mode:           "mock",
			Endpoint:       "http://localhost:11434/v1",
			Model:          "higgs-audio-generation",
			Voice:          "clone",
			Temperature:    0.85,
			TimeoutMS:      45000,
			CloneRetries:   3,
			PresetRetries:  10,
			RetryBackoffMS: 2000,
			MaxClipSeconds: 30,
		},
		Separation: SeparationConfig{
			Enabled: false,
		},
		Mux: MuxConfig{
			Enabled:        false,
			FFmpegPath:     "ffmpeg",
			FFprobePath:    "ffprobe",
			BurnSubtitles:  false,
			BackgroundGain: 0.18,
		},
		Pipeline: PipelineConfig{
			Workers:         1,
			SentencePauseMS: 500,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServiceName, "REDUB_SERVICE_NAME")
	overrideString(&cfg.Environment, "REDUB_ENVIRONMENT")
	overrideString(&cfg.WorkDir, "REDUB_WORK_DIR")
	overrideString(&cfg.HTTP.Bind, "REDUB_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "REDUB_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "REDUB_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "REDUB_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "REDUB_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "REDUB_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Enabled, "REDUB_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "REDUB_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "REDUB_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "REDUB_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "REDUB_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "REDUB_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "REDUB_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "REDUB_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "REDUB_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.JobStore.Path, "REDUB_JOB_STORE_PATH")
	overrideString(&cfg.JobStore.RetentionMode, "REDUB_JOB_STORE_RETENTION_MODE")
	overrideInt(&cfg.JobStore.RetentionDays, "REDUB_JOB_STORE_RETENTION_DAYS")
	overrideInt(&cfg.JobStore.MaxJobs, "REDUB_JOB_STORE_MAX_JOBS")
	overrideBool(&cfg.JobStore.VacuumOnStart, "REDUB_JOB_STORE_VACUUM_ON_START")
	overrideInt(&cfg.Audio.SampleRate, "REDUB_AUDIO_SAMPLE_RATE")
	overrideInt(&cfg.Audio.Channels, "REDUB_AUDIO_CHANNELS")
	overrideString(&cfg.ASR.Mode, "REDUB_ASR_MODE")
	overrideString(&cfg.ASR.Command, "REDUB_ASR_COMMAND")
	overrideString(&cfg.ASR.Language, "REDUB_ASR_LANGUAGE")
	overrideString(&cfg.Translate.Mode, "REDUB_TRANSLATE_MODE")
	overrideString(&cfg.Translate.Endpoint, "REDUB_TRANSLATE_ENDPOINT")
	overrideString(&cfg.Translate.APIKey, "REDUB_TRANSLATE_API_KEY")
	overrideString(&cfg.Translate.Model, "REDUB_TRANSLATE_MODEL")
	overrideString(&cfg.Translate.Command, "REDUB_TRANSLATE_COMMAND")
	overrideString(&cfg.Translate.TargetLanguage, "REDUB_TRANSLATE_TARGET_LANGUAGE")
	overrideFloat(&cfg.Translate.Temperature, "REDUB_TRANSLATE_TEMPERATURE")
	overrideInt(&cfg.Translate.MaxTokens, "REDUB_TRANSLATE_MAX_TOKENS")
	overrideFloat(&cfg.Translate.WordsPerSecond, "REDUB_TRANSLATE_WORDS_PER_SECOND")
	overrideBool(&cfg.Translate.AdjustLength, "REDUB_TRANSLATE_ADJUST_LENGTH")
	overrideString(&cfg.TTS.Mode, "REDUB_TTS_MODE")
	overrideString(&cfg.TTS.Endpoint, "REDUB_TTS_ENDPOINT")
	overrideString(&cfg.TTS.APIKey, "REDUB_TTS_API_KEY")
	overrideString(&cfg.TTS.Model, "REDUB_TTS_MODEL")
	overrideString(&cfg.TTS.Command, "REDUB_TTS_COMMAND")
	overrideString(&cfg.TTS.Voice, "REDUB_TTS_VOICE")
	overrideFloat(&cfg.TTS.Temperature, "REDUB_TTS_TEMPERATURE")
	overrideInt(&cfg.TTS.TimeoutMS, "REDUB_TTS_TIMEOUT_MS")
	overrideInt(&cfg.TTS.CloneRetries, "REDUB_TTS_CLONE_RETRIES")
	overrideInt(&cfg.TTS.PresetRetries, "REDUB_TTS_PRESET_RETRIES")
	overrideInt(&cfg.TTS.RetryBackoffMS, "REDUB_TTS_RETRY_BACKOFF_MS")
	overrideFloat(&cfg.TTS.MaxClipSeconds, "REDUB_TTS_MAX_CLIP_SECONDS")
	overrideBool(&cfg.Separation.Enabled, "REDUB_SEPARATION_ENABLED")
	overrideString(&cfg.Separation.Command, "REDUB_SEPARATION_COMMAND")
	overrideBool(&cfg.Mux.Enabled, "REDUB_MUX_ENABLED")
	overrideString(&cfg.Mux.FFmpegPath, "REDUB_MUX_FFMPEG_PATH")
	overrideString(&cfg.Mux.FFprobePath, "REDUB_MUX_FFPROBE_PATH")
	overrideBool(&cfg.Mux.BurnSubtitles, "REDUB_MUX_BURN_SUBTITLES")
	overrideFloat(&cfg.Mux.BackgroundGain, "REDUB_MUX_BACKGROUND_GAIN")
	overrideInt(&cfg.Pipeline.Workers, "REDUB_PIPELINE_WORKERS")
	overrideInt(&cfg.Pipeline.SentencePauseMS, "REDUB_PIPELINE_SENTENCE_PAUSE_MS")
	overrideBool(&cfg.Pipeline.KeepTempFiles, "REDUB_PIPELINE_KEEP_TEMP_FILES")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if cfg.WorkDir == "" {
		return errors.New("work_dir must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.JobStore.Path == "" {
		return errors.New("job_store.path must not be empty")
	}
	switch cfg.JobStore.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("job_store.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.JobStore.RetentionDays < 0 {
		return errors.New("job_store.retention_days must be >= 0")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	if cfg.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if cfg.Audio.Channels != 1 {
		return errors.New("audio.channels must be 1 (mono pipeline)")
	}
	switch cfg.ASR.Mode {
	case "mock", "exec":
	default:
		return errors.New("asr.mode must be one of mock|exec")
	}
	if cfg.ASR.Mode == "exec" && cfg.ASR.Command == "" {
		return errors.New("asr.command must be set when mode=exec")
	}
	switch cfg.Translate.Mode {
	case "mock", "openai", "exec":
	default:
		return errors.New("translate.mode must be one of mock|openai|exec")
	}
	if cfg.Translate.Mode == "openai" && cfg.Translate.Endpoint == "" {
		return errors.New("translate.endpoint must be set when mode=openai")
	}
	if cfg.Translate.Mode == "exec" && cfg.Translate.Command == "" {
		return errors.New("translate.command must be set when mode=exec")
	}
	if cfg.Translate.WordsPerSecond <= 0 {
		return errors.New("translate.words_per_second must be positive")
	}
	switch cfg.TTS.Mode {
	case "mock", "openai", "exec":
	default:
		return errors.New("tts.mode must be one of mock|openai|exec")
	}
	if cfg.TTS.Mode == "openai" && cfg.TTS.Endpoint == "" {
		return errors.New("tts.endpoint must be set when mode=openai")
	}
	if cfg.TTS.Mode == "exec" && cfg.TTS.Command == "" {
		return errors.New("tts.command must be set when mode=exec")
	}
	if cfg.TTS.CloneRetries <= 0 || cfg.TTS.PresetRetries <= 0 {
		return errors.New("tts retry budgets must be >= 1")
	}
	if cfg.TTS.MaxClipSeconds <= 0 {
		return errors.New("tts.max_clip_seconds must be positive")
	}
	if cfg.Separation.Enabled && cfg.Separation.Command == "" {
		return errors.New("separation.command must be set when separation is enabled")
	}
	if cfg.Mux.BackgroundGain < 0 || cfg.Mux.BackgroundGain > 1 {
		return errors.New("mux.background_gain must be between 0.0 and 1.0")
	}
	if cfg.Pipeline.Workers <= 0 {
		return errors.New("pipeline.workers must be >= 1")
	}
	return nil
}
