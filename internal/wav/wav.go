// Package wav reads and writes 16-bit PCM WAV files.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// header is the RIFF/WAVE/fmt prefix of a canonical PCM file.
type header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32
	AudioFormat   uint16 // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

const headerSize = 36 // through the fmt chunk, before the data chunk header

// Encode writes mono 16-bit PCM samples as a WAV byte blob.
func Encode(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("wav: cannot encode empty audio")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wav: sample rate must be positive, got %d", sampleRate)
	}

	const numChannels = 1
	const bitsPerSample = 16
	dataSize := uint32(len(samples) * 2)

	hdr := header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     headerSize + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * numChannels * bitsPerSample / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+8+int(dataSize)))
	if err := binary.Write(buf, binary.LittleEndian, hdr); err != nil {
		return nil, fmt.Errorf("wav: write header: %w", err)
	}
	buf.WriteString("data")
	if err := binary.Write(buf, binary.LittleEndian, dataSize); err != nil {
		return nil, fmt.Errorf("wav: write data header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("wav: write samples: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a mono 16-bit PCM WAV blob and returns the samples and
// sample rate. Chunks other than "fmt " and "data" (LIST, cue, fact and
// friends) are skipped.
func Decode(data []byte) ([]int16, int, error) {
	if len(data) < headerSize+8 {
		return nil, 0, fmt.Errorf("wav: data too short: %d bytes", len(data))
	}

	r := bytes.NewReader(data)
	var hdr header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, 0, fmt.Errorf("wav: read header: %w", err)
	}
	if string(hdr.ChunkID[:]) != "RIFF" {
		return nil, 0, fmt.Errorf("wav: missing RIFF header")
	}
	if string(hdr.Format[:]) != "WAVE" {
		return nil, 0, fmt.Errorf("wav: missing WAVE format")
	}
	if string(hdr.Subchunk1ID[:]) != "fmt " {
		return nil, 0, fmt.Errorf("wav: missing fmt chunk")
	}
	if hdr.AudioFormat != 1 {
		return nil, 0, fmt.Errorf("wav: unsupported audio format %d, want PCM", hdr.AudioFormat)
	}
	if hdr.BitsPerSample != 16 {
		return nil, 0, fmt.Errorf("wav: unsupported bit depth %d, want 16", hdr.BitsPerSample)
	}
	if hdr.NumChannels != 1 {
		return nil, 0, fmt.Errorf("wav: unsupported channel count %d, want mono", hdr.NumChannels)
	}

	// The fmt chunk may be longer than the 16 bytes decoded above.
	if hdr.Subchunk1Size > 16 {
		if _, err := r.Seek(int64(hdr.Subchunk1Size-16), io.SeekCurrent); err != nil {
			return nil, 0, fmt.Errorf("wav: skip fmt extension: %w", err)
		}
	}

	for {
		var chunkID [4]byte
		var chunkSize uint32
		if err := binary.Read(r, binary.LittleEndian, &chunkID); err != nil {
			return nil, 0, fmt.Errorf("wav: missing data chunk")
		}
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, 0, fmt.Errorf("wav: truncated chunk %q", chunkID)
		}
		if string(chunkID[:]) != "data" {
			skip := int64(chunkSize)
			if chunkSize%2 == 1 {
				skip++ // RIFF chunks are word aligned
			}
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return nil, 0, fmt.Errorf("wav: skip chunk %q: %w", chunkID, err)
			}
			continue
		}

		// The declared size comes from the file; bound it by the bytes
		// actually present before sizing the allocation.
		if int64(chunkSize) > int64(r.Len()) {
			return nil, 0, fmt.Errorf("wav: data chunk declares %d bytes, only %d remain", chunkSize, r.Len())
		}
		numSamples := int(chunkSize) / 2
		if numSamples <= 0 {
			return nil, 0, fmt.Errorf("wav: no audio data")
		}
		samples := make([]int16, numSamples)
		if err := binary.Read(r, binary.LittleEndian, samples); err != nil {
			return nil, 0, fmt.Errorf("wav: read samples: %w", err)
		}
		return samples, int(hdr.SampleRate), nil
	}
}

// ToFloat32 rescales 16-bit samples into [-1, 1).
func ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// FromFloat32 clamps and rescales float samples to 16-bit.
func FromFloat32(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := s * 32768.0
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}

// Bytes lays samples out as little-endian signed 16-bit PCM.
func Bytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// ToneBurst describes one sine segment of a synthesized clip.
type ToneBurst struct {
	StartSec  float64
	EndSec    float64
	Freq      float64
	Amplitude float64
}

// Synthesize renders silence of the given length with the tone bursts
// mixed in. Useful for demos and detector tests.
func Synthesize(seconds float64, sampleRate int, bursts []ToneBurst) []int16 {
	total := int(seconds * float64(sampleRate))
	samples := make([]float32, total)
	for _, b := range bursts {
		start := int(b.StartSec * float64(sampleRate))
		end := int(b.EndSec * float64(sampleRate))
		if start < 0 {
			start = 0
		}
		if end > total {
			end = total
		}
		for i := start; i < end; i++ {
			tm := float64(i) / float64(sampleRate)
			samples[i] += float32(b.Amplitude * math.Sin(2*math.Pi*b.Freq*tm))
		}
	}
	return FromFloat32(samples)
}
