//go:build silero

package engine

// NativeAvailable reports that the Silero VAD engine is compiled in.
func NativeAvailable() bool { return true }

// NewNativeEngine creates a SileroEngine for the ONNX model at modelPath
// with the given speech threshold.
func NewNativeEngine(modelPath string, threshold float64) (Engine, error) {
	return NewSileroEngine(modelPath, threshold)
}
