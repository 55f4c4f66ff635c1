package client

import (
	"fmt"
	"sync"
	"time"

	"github.com/afroash/plantlab/internal/models"
)

// ReadingBuffer is a thread-safe bounded buffer of readings waiting for
// uplink. It smooths over hub outages: readings accumulate while the
// connection is down and drain in batches once it is back.
type ReadingBuffer struct {
	readings   []models.ReadingMessage
	capacity   int
	dropOldest bool
	mutex      sync.RWMutex
	stats      BufferStats
}

// BufferStats tracks buffer usage statistics
type BufferStats struct {
	TotalPushed   int64
	TotalDropped  int64
	HighWaterMark int
	LastPushTime  time.Time
	LastDropTime  time.Time
}

// NewReadingBuffer creates a new reading buffer with given capacity
func NewReadingBuffer(capacity int, dropOldest bool) *ReadingBuffer {
	return &ReadingBuffer{
		readings:   make([]models.ReadingMessage, 0, capacity),
		capacity:   capacity,
		dropOldest: dropOldest,
	}
}

// Push adds a reading to the buffer
// Returns true if successful, false if dropped (when full and dropOldest=false)
func (rb *ReadingBuffer) Push(reading models.ReadingMessage) bool {
	rb.mutex.Lock()
	defer rb.mutex.Unlock()

	if len(rb.readings) >= rb.capacity {
		rb.stats.TotalDropped++
		rb.stats.LastDropTime = time.Now()
		if !rb.dropOldest {
			return false
		}
		rb.readings = rb.readings[1:]
	}
	rb.readings = append(rb.readings, reading)
	rb.stats.TotalPushed++
	rb.stats.LastPushTime = time.Now()

	if len(rb.readings) > rb.stats.HighWaterMark {
		rb.stats.HighWaterMark = len(rb.readings)
	}

	return true
}

// PopBatch removes and returns up to n readings from the buffer,
// oldest first
func (rb *ReadingBuffer) PopBatch(n int) []models.ReadingMessage {
	rb.mutex.Lock()
	defer rb.mutex.Unlock()

	count := min(n, len(rb.readings))
	if count == 0 {
		return nil
	}
	result := make([]models.ReadingMessage, count)
	copy(result, rb.readings[:count])
	rb.readings = rb.readings[count:]
	return result
}

// Peek returns up to n readings without removing them
func (rb *ReadingBuffer) Peek(n int) []models.ReadingMessage {
	rb.mutex.RLock()
	defer rb.mutex.RUnlock()

	count := min(n, len(rb.readings))
	if count == 0 {
		return nil
	}
	result := make([]models.ReadingMessage, count)
	copy(result, rb.readings[:count])
	return result
}

// Size returns the current number of readings in the buffer
func (rb *ReadingBuffer) Size() int {
	rb.mutex.RLock()
	defer rb.mutex.RUnlock()
	return len(rb.readings)
}

// IsFull returns true if buffer is at capacity
func (rb *ReadingBuffer) IsFull() bool {
	rb.mutex.RLock()
	defer rb.mutex.RUnlock()
	return len(rb.readings) >= rb.capacity
}

// IsEmpty returns true if buffer has no readings
func (rb *ReadingBuffer) IsEmpty() bool {
	rb.mutex.RLock()
	defer rb.mutex.RUnlock()
	return len(rb.readings) == 0
}

// Clear removes all readings from the buffer
func (rb *ReadingBuffer) Clear() {
	rb.mutex.Lock()
	defer rb.mutex.Unlock()
	rb.readings = rb.readings[:0]
	rb.stats = BufferStats{}
}

// Capacity returns the maximum capacity of the buffer
func (rb *ReadingBuffer) Capacity() int {
	// No lock needed, capacity doesn't change
	return rb.capacity
}

// Stats returns a copy of current buffer statistics
func (rb *ReadingBuffer) Stats() BufferStats {
	rb.mutex.RLock()
	defer rb.mutex.RUnlock()
	return rb.stats
}

// String returns a human-readable representation of buffer state
func (rb *ReadingBuffer) String() string {
	rb.mutex.RLock()
	defer rb.mutex.RUnlock()

	mode := "drop-newest"
	if rb.dropOldest {
		mode = "drop-oldest"
	}
	return fmt.Sprintf("Buffer[%d/%d, dropped: %d, mode: %s]",
		len(rb.readings),
		rb.capacity,
		rb.stats.TotalDropped,
		mode,
	)
}
