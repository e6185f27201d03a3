package engine

import "errors"

const (
	// ExpectedSampleRate is the only sample rate the Silero model accepts.
	ExpectedSampleRate uint32 = 16000

	// sileroWindowSize is the number of samples per inference window.
	sileroWindowSize = 512

	// sileroStateSize is the per-layer hidden state width of the model.
	sileroStateSize = 128
)

// ErrWrongSampleRate is returned when a chunk arrives at a rate other than
// ExpectedSampleRate. Callers are expected to resample before feeding audio.
var ErrWrongSampleRate = errors.New("unsupported sample rate")

// Result holds the output of a single VAD inference window.
type Result struct {
	IsSpeech   bool
	Confidence float32
}

// Engine processes audio chunks and returns per-window VAD results.
// Implementations buffer partial windows internally, so a chunk may yield
// zero, one, or several results.
type Engine interface {
	// ProcessChunk receives s16le mono PCM and returns one result per
	// complete inference window consumed from the stream.
	ProcessChunk(pcm []byte, sampleRate uint32) ([]Result, error)
	// SetThreshold changes the speech decision threshold for future
	// windows. The threshold must be within [0, 1].
	SetThreshold(threshold float32) error
	// Reset clears buffered audio and model state between utterances.
	Reset() error
	// FrameDurationMs reports the duration of one inference window.
	FrameDurationMs() int
	// Close releases resources. Safe to call more than once.
	Close() error
}
