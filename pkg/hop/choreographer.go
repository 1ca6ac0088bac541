package hop

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Choreographer plays hops on a Writer.
type Choreographer struct {
	out     Writer
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	onPhase func(id string, p Phase)
}

// New creates a choreographer writing to out.
func New(out Writer) *Choreographer {
	return &Choreographer{
		out:   out,
		now:   time.Now,
		sleep: sleep,
	}
}

// OnPhase registers a callback run as each phase starts.
func (c *Choreographer) OnPhase(fn func(id string, p Phase)) {
	c.onPhase = fn
}

// Run performs one hop and blocks until it has landed. Write faults do not
// stop the hop; they are joined into the returned error.
//
// If ctx is cancelled the remaining holds are skipped, but the landing pose
// is still written.
func (c *Choreographer) Run(ctx context.Context, p Params, sample Sampler) (Result, error) {
	res := Result{
		ID:    uuid.NewString(),
		Start: c.now(),
	}
	var faults []error

	enter := func(ph Phase) {
		if c.onPhase != nil {
			c.onPhase(res.ID, ph)
		}
		if ph == Air {
			return
		}
		if err := c.out.Apply(p.pose(ph)); err != nil {
			faults = append(faults, err)
		}
	}
	hold := func(d time.Duration) {
		if ctx.Err() != nil {
			return
		}
		if err := c.sleep(ctx, d); err != nil {
			res.Aborted = true
		}
	}

	enter(Crouch)
	hold(p.CrouchDelay)

	enter(Launch)
	hold(p.LaunchDelay)

	enter(Air)
	airStart := c.now()
	for ctx.Err() == nil {
		left := p.AirTime - c.now().Sub(airStart)
		if left <= 0 {
			break
		}
		if sample != nil {
			if tilt, ok := sample(); ok {
				res.Samples++
				res.PeakTilt = max(res.PeakTilt, tilt)
			}
		}
		step := p.SampleInterval
		if step <= 0 || step > left {
			step = left
		}
		hold(step)
	}

	enter(Landing)
	hold(p.LandingDelay)

	if ctx.Err() != nil {
		res.Aborted = true
	}
	res.Duration = c.now().Sub(res.Start)
	return res, errors.Join(faults...)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
