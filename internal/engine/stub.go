package engine

import "fmt"

// StubToggleInterval is the number of windows after which the stub engine
// toggles between speech and silence. At 32ms per window, 31 windows is
// just under 1 second.
const StubToggleInterval = 31

// StubConfidence is the fixed confidence value returned by the stub engine.
const StubConfidence float32 = 0.42

// StubEngine returns deterministic VAD results by alternating between speech
// and silence every StubToggleInterval windows. It counts samples but never
// inspects them, so it runs without ONNX Runtime or a model file.
type StubEngine struct {
	buffered int
	counter  int
	speaking bool
}

var _ Engine = (*StubEngine)(nil)

// NewStubEngine creates a StubEngine starting in silence state.
func NewStubEngine() *StubEngine {
	return &StubEngine{}
}

// ProcessChunk consumes PCM samples in 512-sample windows, mirroring the
// buffering behavior of the real engine, and emits one deterministic result
// per window.
func (e *StubEngine) ProcessChunk(pcm []byte, sampleRate uint32) ([]Result, error) {
	if sampleRate != ExpectedSampleRate {
		return nil, ErrWrongSampleRate
	}
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("stub: PCM buffer has odd length %d, expected even (s16le requires 2 bytes per sample)", len(pcm))
	}

	e.buffered += len(pcm) / 2

	var results []Result
	for e.buffered >= sileroWindowSize {
		e.buffered -= sileroWindowSize
		e.counter++
		if e.counter >= StubToggleInterval {
			e.counter = 0
			e.speaking = !e.speaking
		}
		results = append(results, Result{
			IsSpeech:   e.speaking,
			Confidence: StubConfidence,
		})
	}

	return results, nil
}

// SetThreshold validates the threshold but otherwise ignores it: stub
// results do not depend on it.
func (e *StubEngine) SetThreshold(threshold float32) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("stub: threshold %v outside [0, 1]", threshold)
	}
	return nil
}

// Reset returns the engine to its initial state (silence, empty buffer).
func (e *StubEngine) Reset() error {
	e.buffered = 0
	e.counter = 0
	e.speaking = false
	return nil
}

// FrameDurationMs returns 32, matching the real engine's window duration.
func (e *StubEngine) FrameDurationMs() int {
	return int(sileroWindowSize * 1000 / ExpectedSampleRate)
}

// Close is a no-op for the stub engine.
func (e *StubEngine) Close() error {
	return nil
}
