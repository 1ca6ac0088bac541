package robot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrInvalidChannel = errors.New("invalid channel")
	ErrPositionRange  = errors.New("position out of range")
	ErrHardwareFault  = errors.New("hardware fault")
	ErrNoReadback     = errors.New("driver cannot read positions")
)

// Driver writes absolute positions to the physical actuators.
type Driver interface {
	WritePosition(ctx context.Context, channel, value int) error
	Close() error
}

// PositionReader is implemented by drivers that can report where the
// servos actually are, keyed by channel.
type PositionReader interface {
	ReadPositions(ctx context.Context) (map[int]int, error)
}

// Plant is the actuator plant: 12 position-controlled channels.
// It remembers the last successfully written position of every channel,
// so Position never touches the hardware.
type Plant struct {
	driver  Driver
	limits  Limits
	timeout time.Duration

	mu     sync.RWMutex
	pos    [NumChannels]int
	writes uint64
	faults uint64
}

// NewPlant wraps driver. Initial positions are assumed to be the
// calibration base; nothing is written until the first SetPosition.
func NewPlant(driver Driver, limits Limits, initial Calibration) *Plant {
	return &Plant{
		driver:  driver,
		limits:  limits,
		timeout: 50 * time.Millisecond,
		pos:     initial,
	}
}

// Limits returns the legal position range.
func (p *Plant) Limits() Limits {
	return p.limits
}

// SetPosition writes value to channel. On a driver failure the cached
// position is left stale and the error wraps ErrHardwareFault.
func (p *Plant) SetPosition(channel, value int) error {
	if channel < 0 || channel >= NumChannels {
		return fmt.Errorf("set channel %d: %w", channel, ErrInvalidChannel)
	}
	if !p.limits.Contains(value) {
		return fmt.Errorf("set channel %d to %d (legal %d..%d): %w",
			channel, value, p.limits.Min, p.limits.Max, ErrPositionRange)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.driver.WritePosition(ctx, channel, value); err != nil {
		p.mu.Lock()
		p.faults++
		p.mu.Unlock()
		return fmt.Errorf("%w: write channel %d: %w", ErrHardwareFault, channel, err)
	}

	p.mu.Lock()
	p.pos[channel] = value
	p.writes++
	p.mu.Unlock()
	return nil
}

// Apply writes every target and joins the errors. Failed channels do not
// stop the remaining writes.
func (p *Plant) Apply(targets []Target) error {
	var errs []error
	for _, t := range targets {
		if err := p.SetPosition(t.Channel, t.Value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Position returns the last written position of channel, or zero for an
// unknown channel.
func (p *Plant) Position(channel int) int {
	if channel < 0 || channel >= NumChannels {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pos[channel]
}

// Positions returns a snapshot of all channels.
func (p *Plant) Positions() [NumChannels]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pos
}

// Sync replaces the cached positions with the ones reported by the
// driver. Channels the driver does not report keep their cached value.
func (p *Plant) Sync(ctx context.Context) error {
	r, ok := p.driver.(PositionReader)
	if !ok {
		return ErrNoReadback
	}
	present, err := r.ReadPositions(ctx)
	if err != nil {
		return fmt.Errorf("%w: read positions: %w", ErrHardwareFault, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch, v := range present {
		if ch >= 0 && ch < NumChannels {
			p.pos[ch] = v
		}
	}
	return nil
}

// Stats returns the number of successful writes and hardware faults.
func (p *Plant) Stats() (writes, faults uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.writes, p.faults
}

// Close releases the driver.
func (p *Plant) Close() error {
	return p.driver.Close()
}
