package main

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/richardwooding/dotmatrix/internal/apu"
)

// bytesPerFrame is one stereo frame of two 16-bit little-endian samples.
const bytesPerFrame = 4

// AudioPlayer streams the APU sample ring to the audio device. The device
// pulls from its own goroutine; the ring does the locking.
type AudioPlayer struct {
	player *audio.Player
	stream *sampleStream
}

// NewAudioPlayer opens the audio device at the APU's sample rate. tap, when
// non-nil, receives every sample handed to the device.
func NewAudioPlayer(ring *apu.Ring, volume float64, tap func(...int16)) (*AudioPlayer, error) {
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(apu.SampleRate)
	}

	stream := &sampleStream{ring: ring, tap: tap}
	player, err := ctx.NewPlayer(stream)
	if err != nil {
		return nil, err
	}

	// A short buffer keeps latency low; the ring absorbs jitter.
	player.SetBufferSize(50 * time.Millisecond)
	player.SetVolume(volume)

	return &AudioPlayer{player: player, stream: stream}, nil
}

// Start starts audio playback.
func (ap *AudioPlayer) Start() {
	ap.player.Play()
}

// Stop stops audio playback.
func (ap *AudioPlayer) Stop() {
	ap.player.Pause()
}

// sampleStream is an endless io.Reader over the ring. It never blocks: when
// the ring runs dry it plays silence.
type sampleStream struct {
	ring    *apu.Ring
	tap     func(...int16)
	scratch []int16
}

// Read implements io.Reader, duplicating each mono sample to both channels.
func (s *sampleStream) Read(buf []byte) (int, error) {
	frames := len(buf) / bytesPerFrame
	if cap(s.scratch) < frames {
		s.scratch = make([]int16, frames)
	}
	samples := s.scratch[:frames]

	n := s.ring.PopInto(samples)
	if s.tap != nil && n > 0 {
		s.tap(samples[:n]...)
	}

	for i, sample := range samples {
		lo, hi := byte(sample), byte(uint16(sample)>>8) //nolint:gosec // G115: byte extraction
		buf[i*4] = lo
		buf[i*4+1] = hi
		buf[i*4+2] = lo
		buf[i*4+3] = hi
	}
	return frames * bytesPerFrame, nil
}
