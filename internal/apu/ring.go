package apu

import "sync"

// RingSize is the capacity of the sample ring. One slot stays empty to tell
// a full ring from an empty one.
const RingSize = 4096

// Ring is a bounded FIFO of mono samples shared between the emulation loop
// (producer) and the audio device callback (consumer). When full, Push drops
// the oldest unread sample instead of blocking.
type Ring struct {
	mu    sync.Mutex
	buf   [RingSize]int16
	read  int
	write int
}

// Push appends a sample, discarding the oldest one on overflow.
func (r *Ring) Push(sample int16) {
	r.mu.Lock()
	r.buf[r.write] = sample
	r.write = (r.write + 1) % RingSize
	if r.write == r.read {
		r.read = (r.read + 1) % RingSize
	}
	r.mu.Unlock()
}

// Pop removes and returns the oldest sample, or 0 when the ring is empty.
func (r *Ring) Pop() int16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pop()
}

func (r *Ring) pop() int16 {
	if r.read == r.write {
		return 0
	}
	s := r.buf[r.read]
	r.read = (r.read + 1) % RingSize
	return s
}

// PopInto fills dst with samples, padding with silence once the ring runs
// dry. It returns how many real samples were copied.
func (r *Ring) PopInto(dst []int16) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for i := range dst {
		if r.read != r.write {
			n++
		}
		dst[i] = r.pop()
	}
	return n
}

// Len returns the number of buffered samples.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (r.write - r.read + RingSize) % RingSize
}

// Clear drops every buffered sample.
func (r *Ring) Clear() {
	r.mu.Lock()
	r.read, r.write = 0, 0
	r.mu.Unlock()
}
