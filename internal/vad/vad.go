// Package vad turns per-window engine results into speech segments.
package vad

import (
	"fmt"

	"github.com/tonyrewin/silero-vad-go/internal/config"
	"github.com/tonyrewin/silero-vad-go/internal/engine"
)

// Segment is a detected speech region, in seconds from the start of the
// audio stream.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 { return s.End - s.Start }

// Segmenter applies hysteresis to raw per-window engine results. A segment
// opens after MinSpeechDurationMs of consecutive speech and closes after
// MinSilenceDurationMs of silence. The reported start is backdated to the
// first speech window, and SpeechPadMs of padding is added to the end.
//
// The threshold itself is applied inside the engine (Result.IsSpeech is
// already thresholded).
type Segmenter struct {
	inSpeech      bool
	speechFrames  int
	silenceFrames int

	frameIndex int // windows fed so far
	startFrame int // first window of the open segment

	// Derived from config: number of consecutive windows needed.
	minSpeechFrames  int
	minSilenceFrames int

	frameSec float64 // duration of one window in seconds
	padSec   float64 // trailing pad in seconds
}

// NewSegmenter builds a Segmenter for engines emitting one result every
// frameDurationMs milliseconds.
//
// The pad is clamped to the silence-confirmation span: a following
// segment's backdated start is always at least that many windows past
// the current segment's end, so the clamp keeps padded segments from
// overlapping.
func NewSegmenter(cfg config.Config, frameDurationMs int) *Segmenter {
	minSilenceFrames := max(1, ceilDiv(cfg.MinSilenceDurationMs, frameDurationMs))
	frameSec := float64(frameDurationMs) / 1000.0
	padSec := float64(cfg.SpeechPadMs) / 1000.0
	if limit := float64(minSilenceFrames) * frameSec; padSec > limit {
		padSec = limit
	}
	return &Segmenter{
		minSpeechFrames:  max(1, ceilDiv(cfg.MinSpeechDurationMs, frameDurationMs)),
		minSilenceFrames: minSilenceFrames,
		frameSec:         frameSec,
		padSec:           padSec,
	}
}

// ceilDiv returns the ceiling of a/b for positive integers.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Feed consumes one engine result. It returns a completed segment when the
// result closes one, with ok reporting whether a segment was produced.
func (s *Segmenter) Feed(r engine.Result) (seg Segment, ok bool) {
	frame := s.frameIndex
	s.frameIndex++

	if r.IsSpeech {
		s.speechFrames++
		s.silenceFrames = 0

		if !s.inSpeech && s.speechFrames >= s.minSpeechFrames {
			s.inSpeech = true
			s.startFrame = frame - s.speechFrames + 1
		}
		return Segment{}, false
	}

	s.silenceFrames++
	s.speechFrames = 0

	if s.inSpeech && s.silenceFrames >= s.minSilenceFrames {
		s.inSpeech = false
		// Speech ended where the current silence run began.
		return s.segment(frame - s.silenceFrames + 1), true
	}
	return Segment{}, false
}

// Flush closes a trailing open segment at the end of the stream. Short
// trailing silence that never reached MinSilenceDurationMs is excluded from
// the segment.
func (s *Segmenter) Flush() (seg Segment, ok bool) {
	if !s.inSpeech {
		return Segment{}, false
	}
	s.inSpeech = false
	seg = s.segment(s.frameIndex - s.silenceFrames)
	s.speechFrames = 0
	s.silenceFrames = 0
	return seg, true
}

// Reset returns the Segmenter to its initial state for a new stream.
func (s *Segmenter) Reset() {
	s.inSpeech = false
	s.speechFrames = 0
	s.silenceFrames = 0
	s.frameIndex = 0
	s.startFrame = 0
}

func (s *Segmenter) segment(endFrame int) Segment {
	return Segment{
		Start: float64(s.startFrame) * s.frameSec,
		End:   float64(endFrame)*s.frameSec + s.padSec,
	}
}

// DetectSegments runs the engine over a whole s16le PCM buffer and returns
// the detected speech segments. The engine is reset first, so state from
// earlier streams does not leak in. A trailing partial window stays
// unprocessed, and segment ends are clamped to the buffer duration.
func DetectSegments(eng engine.Engine, pcm []byte, sampleRate uint32, cfg config.Config) ([]Segment, error) {
	if err := eng.Reset(); err != nil {
		return nil, fmt.Errorf("vad: reset engine: %w", err)
	}

	seg := NewSegmenter(cfg, eng.FrameDurationMs())
	results, err := eng.ProcessChunk(pcm, sampleRate)
	if err != nil {
		return nil, err
	}

	var out []Segment
	for _, r := range results {
		if s, ok := seg.Feed(r); ok {
			out = append(out, s)
		}
	}
	if s, ok := seg.Flush(); ok {
		out = append(out, s)
	}

	total := float64(len(pcm)/2) / float64(sampleRate)
	for i := range out {
		if out[i].End > total {
			out[i].End = total
		}
	}
	return out, nil
}

// Collect concatenates the sample regions covered by segments, in order.
func Collect(samples []int16, sampleRate uint32, segments []Segment) ([]int16, error) {
	var out []int16
	for _, seg := range segments {
		lo, hi, err := segmentBounds(seg, sampleRate, len(samples))
		if err != nil {
			return nil, err
		}
		out = append(out, samples[lo:hi]...)
	}
	return out, nil
}

// Drop removes the sample regions covered by segments and concatenates the
// rest. Segments must be sorted by start time.
func Drop(samples []int16, sampleRate uint32, segments []Segment) ([]int16, error) {
	var out []int16
	pos := 0
	for _, seg := range segments {
		lo, hi, err := segmentBounds(seg, sampleRate, len(samples))
		if err != nil {
			return nil, err
		}
		if lo > pos {
			out = append(out, samples[pos:lo]...)
		}
		if hi > pos {
			pos = hi
		}
	}
	if pos < len(samples) {
		out = append(out, samples[pos:]...)
	}
	return out, nil
}

func segmentBounds(seg Segment, sampleRate uint32, n int) (int, int, error) {
	lo := int(seg.Start * float64(sampleRate))
	hi := int(seg.End * float64(sampleRate))
	if lo < 0 || hi < lo || lo >= n || hi > n {
		return 0, 0, fmt.Errorf("vad: segment %.3fs-%.3fs out of bounds (audio length %d samples)", seg.Start, seg.End, n)
	}
	return lo, hi, nil
}
