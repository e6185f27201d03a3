package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration from an optional YAML file and environment
// variables. Tests can override Lookup to inject deterministic maps.
type Loader struct {
	Lookup func(string) (string, bool)
}

// Load resolves the configuration: declared defaults, then the YAML file
// named by SILERO_VAD_CONFIG (when set), then individual SILERO_VAD_*
// environment overrides.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}

	cfg := Config{
		ModelsDir:            DefaultModelsDir,
		ModelURL:             DefaultModelURL,
		OpsetVersion:         DefaultOpsetVersion,
		LogLevel:             DefaultLogLevel,
		Threshold:            DefaultThreshold,
		MinSpeechDurationMs:  DefaultMinSpeechDurationMs,
		MinSilenceDurationMs: DefaultMinSilenceDurationMs,
		SpeechPadMs:          DefaultSpeechPadMs,
	}

	if path, ok := l.Lookup("SILERO_VAD_CONFIG"); ok && strings.TrimSpace(path) != "" {
		if err := applyFile(strings.TrimSpace(path), &cfg); err != nil {
			return Config{}, err
		}
	}

	overrideString(l.Lookup, "SILERO_VAD_MODELS_DIR", &cfg.ModelsDir)
	overrideString(l.Lookup, "SILERO_VAD_MODEL_URL", &cfg.ModelURL)
	overrideString(l.Lookup, "SILERO_VAD_PYTHON", &cfg.PythonBin)
	overrideString(l.Lookup, "SILERO_VAD_LOG_LEVEL", &cfg.LogLevel)
	if err := overrideInt(l.Lookup, "SILERO_VAD_OPSET", &cfg.OpsetVersion); err != nil {
		return Config{}, err
	}
	if err := overrideFloat(l.Lookup, "SILERO_VAD_THRESHOLD", &cfg.Threshold); err != nil {
		return Config{}, err
	}
	if err := overrideInt(l.Lookup, "SILERO_VAD_MIN_SPEECH_DURATION_MS", &cfg.MinSpeechDurationMs); err != nil {
		return Config{}, err
	}
	if err := overrideInt(l.Lookup, "SILERO_VAD_MIN_SILENCE_DURATION_MS", &cfg.MinSilenceDurationMs); err != nil {
		return Config{}, err
	}
	if err := overrideInt(l.Lookup, "SILERO_VAD_SPEECH_PAD_MS", &cfg.SpeechPadMs); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(path string, cfg *Config) error {
	type fileConfig struct {
		ModelsDir            string   `yaml:"models_dir"`
		ModelURL             string   `yaml:"model_url"`
		PythonBin            string   `yaml:"python_bin"`
		OpsetVersion         *int     `yaml:"opset_version"`
		LogLevel             string   `yaml:"log_level"`
		Threshold            *float64 `yaml:"threshold"`
		MinSpeechDurationMs  *int     `yaml:"min_speech_duration_ms"`
		MinSilenceDurationMs *int     `yaml:"min_silence_duration_ms"`
		SpeechPadMs          *int     `yaml:"speech_pad_ms"`
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var payload fileConfig
	if err := yaml.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	if payload.ModelsDir != "" {
		cfg.ModelsDir = payload.ModelsDir
	}
	if payload.ModelURL != "" {
		cfg.ModelURL = payload.ModelURL
	}
	if payload.PythonBin != "" {
		cfg.PythonBin = payload.PythonBin
	}
	if payload.OpsetVersion != nil {
		cfg.OpsetVersion = *payload.OpsetVersion
	}
	if payload.LogLevel != "" {
		cfg.LogLevel = payload.LogLevel
	}
	if payload.Threshold != nil {
		cfg.Threshold = *payload.Threshold
	}
	if payload.MinSpeechDurationMs != nil {
		cfg.MinSpeechDurationMs = *payload.MinSpeechDurationMs
	}
	if payload.MinSilenceDurationMs != nil {
		cfg.MinSilenceDurationMs = *payload.MinSilenceDurationMs
	}
	if payload.SpeechPadMs != nil {
		cfg.SpeechPadMs = *payload.SpeechPadMs
	}
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideFloat(lookup func(string) (string, bool), key string, target *float64) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}
