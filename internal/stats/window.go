package stats

import "math"

// Window is a fixed-capacity ring buffer of float64 samples. Once full, every
// push overwrites the oldest sample, so the retained contents are always the
// most recent Cap() values in arrival order. Eviction and insertion are O(1).
type Window struct {
	buf   []float64
	start int
	count int
}

// NewWindow allocates a window holding at most capacity samples.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]float64, capacity)}
}

// Push appends v, evicting the oldest sample when the window is full.
func (w *Window) Push(v float64) {
	if w.count < len(w.buf) {
		w.buf[(w.start+w.count)%len(w.buf)] = v
		w.count++
		return
	}
	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
}

// Len reports how many samples are currently retained.
func (w *Window) Len() int { return w.count }

// Cap reports the configured capacity.
func (w *Window) Cap() int { return len(w.buf) }

// At returns the i-th retained sample, index 0 being the oldest.
func (w *Window) At(i int) float64 {
	return w.buf[(w.start+i)%len(w.buf)]
}

// Values copies the retained samples oldest-first.
func (w *Window) Values() []float64 {
	out := make([]float64, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.At(i)
	}
	return out
}

// Tail copies the most recent n samples oldest-first. n larger than Len is
// clamped to Len.
func (w *Window) Tail(n int) []float64 {
	if n > w.count {
		n = w.count
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = w.At(w.count - n + i)
	}
	return out
}

// Mean returns the arithmetic mean of the retained samples, 0 when empty.
func (w *Window) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < w.count; i++ {
		sum += w.At(i)
	}
	return sum / float64(w.count)
}

// Std returns the population standard deviation of the retained samples.
func (w *Window) Std() float64 {
	if w.count == 0 {
		return 0
	}
	mean := w.Mean()
	var sq float64
	for i := 0; i < w.count; i++ {
		d := w.At(i) - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(w.count))
}
