package recorder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/richardwooding/dotmatrix/internal/apu"
)

func TestRecorderWritesWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	r := New(path)

	want := []int16{0, 1000, -1000, 32767, -32768, 42}
	r.Add(want...)
	if r.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", r.Len(), len(want))
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("output is not a valid WAV file")
	}
	if dec.SampleRate != apu.SampleRate || dec.NumChans != 1 || dec.BitDepth != BitDepth {
		t.Errorf("format = %d Hz, %d channels, %d bits", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}
	if len(buf.Data) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(want))
	}
	for i, s := range want {
		if buf.Data[i] != int(s) {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], s)
		}
	}
}

func TestRecorderDrain(t *testing.T) {
	var ring apu.Ring
	for i := range 100 {
		ring.Push(int16(i))
	}

	r := New(filepath.Join(t.TempDir(), "drain.wav"))
	if n := r.Drain(&ring); n != 100 {
		t.Errorf("Drain() = %d, want 100", n)
	}
	if ring.Len() != 0 {
		t.Errorf("ring still holds %d samples", ring.Len())
	}
	if r.Len() != 100 {
		t.Errorf("Len() = %d, want 100", r.Len())
	}
	if d := r.Duration(); d <= 0 || d >= 0.01 {
		t.Errorf("Duration() = %f", d)
	}
}

func TestRecorderClosedTwice(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "twice.wav"))
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := r.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}

	r.Add(1, 2, 3)
	if r.Len() != 0 {
		t.Error("Add after Close recorded samples")
	}
}

func TestRecorderBadPath(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "missing", "out.wav"))
	r.Add(1)
	if err := r.Close(); err == nil {
		t.Error("Close() into a missing directory succeeded")
	}
}
