package store

import "github.com/afroash/plantlab/internal/models"

// ring is a fixed-capacity FIFO buffer of samples. Once the buffer is
// full, a push overwrites the oldest entry in place, so appends never
// allocate after warm-up.
type ring struct {
	buf  []models.Sample
	head int // index of the oldest sample
	size int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]models.Sample, capacity)}
}

// push appends a sample, evicting the oldest one at capacity.
func (r *ring) push(s models.Sample) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = s
		r.size++
		return
	}
	r.buf[r.head] = s
	r.head = (r.head + 1) % len(r.buf)
}

func (r *ring) len() int {
	return r.size
}

// latest returns the newest sample, if any.
func (r *ring) latest() (models.Sample, bool) {
	if r.size == 0 {
		return models.Sample{}, false
	}
	return r.buf[(r.head+r.size-1)%len(r.buf)], true
}

// snapshot returns the samples oldest-first as a fresh slice.
func (r *ring) snapshot() []models.Sample {
	out := make([]models.Sample, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}
