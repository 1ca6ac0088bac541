package filter

// window is a bounded FIFO of float64 samples.
type window struct {
	cap  int
	vals []float64
}

func newWindow(capacity int) window {
	return window{cap: capacity, vals: make([]float64, 0, capacity)}
}

func (w *window) push(v float64) {
	w.vals = append(w.vals, v)
	if len(w.vals) > w.cap {
		w.vals = w.vals[len(w.vals)-w.cap:]
	}
}

func (w *window) len() int {
	return len(w.vals)
}

// last returns the n most recent samples, oldest first. The slice aliases
// the window and must not be kept.
func (w *window) last(n int) []float64 {
	if n > len(w.vals) {
		n = len(w.vals)
	}
	return w.vals[len(w.vals)-n:]
}

func (w *window) resize(capacity int) {
	w.cap = capacity
	if len(w.vals) > capacity {
		kept := make([]float64, capacity)
		copy(kept, w.vals[len(w.vals)-capacity:])
		w.vals = kept
	}
}
