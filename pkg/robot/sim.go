package robot

import (
	"context"
	"sync"
)

// Write is one recorded driver write.
type Write struct {
	Channel int
	Value   int
}

// MemoryDriver is an in-memory driver for simulation and tests. It keeps
// the full write history and can be told to fail.
type MemoryDriver struct {
	mu     sync.Mutex
	writes []Write
	fail   func(channel, value int) error
	closed bool
}

// NewMemoryDriver returns an empty driver.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{}
}

// FailWith installs a hook that can reject writes. nil clears it.
func (d *MemoryDriver) FailWith(fn func(channel, value int) error) {
	d.mu.Lock()
	d.fail = fn
	d.mu.Unlock()
}

func (d *MemoryDriver) WritePosition(_ context.Context, channel, value int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		if err := d.fail(channel, value); err != nil {
			return err
		}
	}
	d.writes = append(d.writes, Write{Channel: channel, Value: value})
	return nil
}

// Writes returns a copy of the write history.
func (d *MemoryDriver) Writes() []Write {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Write, len(d.writes))
	copy(out, d.writes)
	return out
}

// ReadPositions reports the last value written to each channel.
func (d *MemoryDriver) ReadPositions(_ context.Context) (map[int]int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[int]int)
	for _, w := range d.writes {
		out[w.Channel] = w.Value
	}
	return out, nil
}

// Count returns the number of recorded writes.
func (d *MemoryDriver) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.writes)
}

// Reset clears the history.
func (d *MemoryDriver) Reset() {
	d.mu.Lock()
	d.writes = nil
	d.mu.Unlock()
}

func (d *MemoryDriver) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}
