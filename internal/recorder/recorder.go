// Package recorder captures APU output as a WAV file. Samples are buffered
// in memory and written when the recorder is closed, so it suits short
// recordings.
package recorder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/richardwooding/dotmatrix/internal/apu"
	"github.com/richardwooding/dotmatrix/internal/logger"
)

// BitDepth of the written file.
const BitDepth = 16

// wavFormatPCM is the WAVE_FORMAT_PCM tag.
const wavFormatPCM = 1

// ErrClosed indicates the recorder has already been written out.
var ErrClosed = errors.New("recorder closed")

// Recorder accumulates mono 16-bit samples. Add may be called from the audio
// callback while the emulation goroutine drains the APU into it.
type Recorder struct {
	filename string

	mu     sync.Mutex
	buffer []int
	closed bool
}

// New creates a recorder that writes to filename on Close.
func New(filename string) *Recorder {
	return &Recorder{filename: filename}
}

// Add appends samples.
func (r *Recorder) Add(samples ...int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	for _, s := range samples {
		r.buffer = append(r.buffer, int(s))
	}
}

// Drain moves every queued sample from ring into the recording and returns
// how many were moved.
func (r *Recorder) Drain(ring *apu.Ring) int {
	buf := make([]int16, apu.RingSize)
	n := ring.PopInto(buf)
	r.Add(buf[:n]...)
	return n
}

// Len returns the number of samples recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffer)
}

// Duration returns the recorded length in seconds.
func (r *Recorder) Duration() float64 {
	return float64(r.Len()) / apu.SampleRate
}

// Encode writes the recording as a WAV stream.
func (r *Recorder) Encode(ws io.WriteSeeker) error {
	r.mu.Lock()
	data := append([]int(nil), r.buffer...)
	r.mu.Unlock()

	enc := wav.NewEncoder(ws, apu.SampleRate, BitDepth, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: apu.SampleRate},
		Data:           data,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	return nil
}

// Close writes the recording to its file. Later calls return ErrClosed.
func (r *Recorder) Close() (rerr error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.mu.Unlock()

	f, err := os.Create(r.filename)
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("recorder: %w", err)
		}
	}()

	if err := r.Encode(f); err != nil {
		return err
	}

	r.mu.Lock()
	r.closed = true
	n := len(r.buffer)
	r.mu.Unlock()

	logger.Logf("recorder", "wrote %d samples to %s", n, r.filename)
	return nil
}
