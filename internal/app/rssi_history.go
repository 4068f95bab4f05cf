package app

// RSSIRing is a circular buffer of fox-hunt RSSI samples. A sample is only
// pushed when the lock reports a new sighting, so a stale lock does not
// flatten the sparkline.
type RSSIRing struct {
	buf   []int
	pos   int
	count int
}

// NewRSSIRing creates a new circular buffer with the given capacity.
func NewRSSIRing(capacity int) *RSSIRing {
	return &RSSIRing{buf: make([]int, capacity)}
}

// Push adds a value to the ring buffer.
func (r *RSSIRing) Push(val int) {
	r.buf[r.pos] = val
	r.pos = (r.pos + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Values returns all stored values in chronological order.
func (r *RSSIRing) Values() []int {
	if r.count == 0 {
		return nil
	}
	out := make([]int, 0, r.count)
	if r.count < len(r.buf) {
		return append(out, r.buf[:r.count]...)
	}
	out = append(out, r.buf[r.pos:]...)
	return append(out, r.buf[:r.pos]...)
}

// Reset drops every sample, used when a new hunt starts.
func (r *RSSIRing) Reset() {
	r.pos, r.count = 0, 0
}

// Len returns the number of stored values.
func (r *RSSIRing) Len() int {
	return r.count
}
