package clean

// RingBuffer is a circular buffer of samples with fixed capacity
type RingBuffer struct {
	data     []float64
	capacity int
	size     int
	head     int // points to the next write position
}

// NewRingBuffer creates a new ring buffer with the specified capacity
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		data:     make([]float64, capacity),
		capacity: capacity,
	}
}

// Push adds a sample to the buffer.
// If the buffer is full, the oldest sample is overwritten and returned with ok=true.
func (rb *RingBuffer) Push(v float64) (evicted float64, ok bool) {
	if rb.size == rb.capacity {
		evicted, ok = rb.data[rb.head], true
	}

	rb.data[rb.head] = v
	rb.head = (rb.head + 1) % rb.capacity
	if rb.size < rb.capacity {
		rb.size++
	}
	return evicted, ok
}

// Size returns the current number of samples in the buffer
func (rb *RingBuffer) Size() int {
	return rb.size
}

// IsFull returns true if the buffer is at capacity
func (rb *RingBuffer) IsFull() bool {
	return rb.size == rb.capacity
}

// Capacity returns the maximum capacity of the buffer
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// ToSlice returns all samples in arrival order (oldest first)
func (rb *RingBuffer) ToSlice() []float64 {
	result := make([]float64, rb.size)
	if rb.size == 0 {
		return result
	}

	start := 0
	if rb.size == rb.capacity {
		start = rb.head
	}

	for i := 0; i < rb.size; i++ {
		result[i] = rb.data[(start+i)%rb.capacity]
	}
	return result
}

// Clear empties the buffer
func (rb *RingBuffer) Clear() {
	rb.size = 0
	rb.head = 0
}
