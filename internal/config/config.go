package config

import (
	"fmt"
	"path/filepath"
)

const (
	DefaultModelsDir = "models"
	DefaultModelURL  = "https://github.com/snakers4/silero-vad/raw/master/files/silero_vad.jit"

	// Artifact names inside the models directory. The JIT file is the
	// download target, the ONNX file is the conversion product.
	JITModelFile  = "silero_vad.jit"
	ONNXModelFile = "silero_vad.onnx"

	DefaultOpsetVersion         = 16
	DefaultThreshold            = 0.5
	DefaultMinSpeechDurationMs  = 250
	DefaultMinSilenceDurationMs = 300
	DefaultSpeechPadMs          = 30
	DefaultLogLevel             = "info"
)

// Config holds the tool configuration.
type Config struct {
	ModelsDir            string  `yaml:"models_dir"`
	ModelURL             string  `yaml:"model_url"`
	PythonBin            string  `yaml:"python_bin"`
	OpsetVersion         int     `yaml:"opset_version"`
	LogLevel             string  `yaml:"log_level"`
	Threshold            float64 `yaml:"threshold"`
	MinSpeechDurationMs  int     `yaml:"min_speech_duration_ms"`
	MinSilenceDurationMs int     `yaml:"min_silence_duration_ms"`
	SpeechPadMs          int     `yaml:"speech_pad_ms"`
}

// JITModelPath is the download destination for the TorchScript model.
func (c Config) JITModelPath() string {
	return filepath.Join(c.ModelsDir, JITModelFile)
}

// ONNXModelPath is the conversion output path.
func (c Config) ONNXModelPath() string {
	return filepath.Join(c.ModelsDir, ONNXModelFile)
}

// Validate checks ranges the rest of the tool depends on.
func (c Config) Validate() error {
	if c.ModelsDir == "" {
		return fmt.Errorf("config: models_dir must not be empty")
	}
	if c.ModelURL == "" {
		return fmt.Errorf("config: model_url must not be empty")
	}
	if c.OpsetVersion <= 0 {
		return fmt.Errorf("config: opset_version must be positive, got %d", c.OpsetVersion)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("config: threshold must be within [0, 1], got %v", c.Threshold)
	}
	if c.MinSpeechDurationMs < 0 {
		return fmt.Errorf("config: min_speech_duration_ms must not be negative, got %d", c.MinSpeechDurationMs)
	}
	if c.MinSilenceDurationMs < 0 {
		return fmt.Errorf("config: min_silence_duration_ms must not be negative, got %d", c.MinSilenceDurationMs)
	}
	if c.SpeechPadMs < 0 {
		return fmt.Errorf("config: speech_pad_ms must not be negative, got %d", c.SpeechPadMs)
	}
	return nil
}
