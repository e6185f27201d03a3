package wav

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768, 42}
	blob, err := Encode(samples, 16000)
	if err != nil {
		t.Fatal(err)
	}
	got, rate, err := Decode(blob)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 16000 {
		t.Errorf("rate = %d, want 16000", rate)
	}
	if len(got) != len(samples) {
		t.Fatalf("len = %d, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample[%d] = %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestEncodeRejectsBadInput(t *testing.T) {
	if _, err := Encode(nil, 16000); err == nil {
		t.Error("expected error for empty samples")
	}
	if _, err := Encode([]int16{1}, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestDecodeSkipsExtraChunks(t *testing.T) {
	samples := []int16{1, 2, 3, 4}
	blob, err := Encode(samples, 8000)
	if err != nil {
		t.Fatal(err)
	}

	// Splice a LIST chunk with an odd payload length between fmt and
	// data; readers must skip it including the alignment pad.
	var spliced bytes.Buffer
	spliced.Write(blob[:headerSize])
	spliced.WriteString("LIST")
	payload := []byte("INFO!")
	binary.Write(&spliced, binary.LittleEndian, uint32(len(payload)))
	spliced.Write(payload)
	spliced.WriteByte(0)
	spliced.Write(blob[headerSize:])

	got, rate, err := Decode(spliced.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if rate != 8000 {
		t.Errorf("rate = %d, want 8000", rate)
	}
	if len(got) != len(samples) || got[0] != 1 || got[3] != 4 {
		t.Errorf("samples = %v, want %v", got, samples)
	}
}

func TestDecodeRejectsBadFiles(t *testing.T) {
	good, err := Encode([]int16{1, 2}, 16000)
	if err != nil {
		t.Fatal(err)
	}

	riffless := append([]byte(nil), good...)
	copy(riffless[0:4], "JUNK")

	stereo := append([]byte(nil), good...)
	binary.LittleEndian.PutUint16(stereo[22:24], 2)

	eightBit := append([]byte(nil), good...)
	binary.LittleEndian.PutUint16(eightBit[34:36], 8)

	float := append([]byte(nil), good...)
	binary.LittleEndian.PutUint16(float[20:22], 3)

	cases := []struct {
		name string
		data []byte
	}{
		{"too short", good[:20]},
		{"not RIFF", riffless},
		{"stereo", stereo},
		{"8-bit", eightBit},
		{"ieee float", float},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := Decode(tc.data); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestDecodeRejectsOversizedDataChunk(t *testing.T) {
	good, err := Encode([]int16{1, 2, 3, 4}, 16000)
	if err != nil {
		t.Fatal(err)
	}

	// Declare a data chunk far larger than the bytes that follow. The
	// decoder must reject it instead of allocating for the claim.
	huge := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(huge[headerSize+4:], 0xFFFFFFF0)

	if _, _, err := Decode(huge); err == nil {
		t.Error("expected decode error for oversized data chunk")
	}

	// A size merely one byte past the payload is rejected too.
	off := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(off[headerSize+4:], 9)
	if _, _, err := Decode(off); err == nil {
		t.Error("expected decode error for data chunk past end of file")
	}
}

func TestFloatConversion(t *testing.T) {
	cases := []struct {
		in   int16
		want float32
	}{
		{0, 0},
		{16384, 0.5},
		{-16384, -0.5},
		{32767, 32767.0 / 32768.0},
		{-32768, -1.0},
	}
	for _, tc := range cases {
		got := ToFloat32([]int16{tc.in})[0]
		if got != tc.want {
			t.Errorf("ToFloat32(%d) = %v, want %v", tc.in, got, tc.want)
		}
	}

	back := FromFloat32([]float32{0, 0.5, -0.5, 1.5, -1.5})
	want := []int16{0, 16384, -16384, 32767, -32768}
	for i := range want {
		if back[i] != want[i] {
			t.Errorf("FromFloat32[%d] = %d, want %d", i, back[i], want[i])
		}
	}
}

func TestBytes(t *testing.T) {
	got := Bytes([]int16{0x0102, -2})
	want := []byte{0x02, 0x01, 0xFE, 0xFF}
	if !bytes.Equal(got, want) {
		t.Errorf("Bytes = %x, want %x", got, want)
	}
}

func TestSynthesize(t *testing.T) {
	clip := Synthesize(2.0, 16000, []ToneBurst{
		{StartSec: 0.5, EndSec: 1.0, Freq: 440, Amplitude: 0.5},
	})
	if len(clip) != 32000 {
		t.Fatalf("len = %d, want 32000", len(clip))
	}

	energy := func(from, to int) float64 {
		var sum float64
		for _, s := range clip[from:to] {
			sum += math.Abs(float64(s))
		}
		return sum / float64(to-from)
	}
	if e := energy(0, 8000); e != 0 {
		t.Errorf("leading silence has energy %v", e)
	}
	if e := energy(8000, 16000); e < 1000 {
		t.Errorf("burst region energy %v, want audible signal", e)
	}
	if e := energy(16000, 32000); e != 0 {
		t.Errorf("trailing silence has energy %v", e)
	}
}
