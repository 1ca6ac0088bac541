package control

import (
	"time"
)

const faultLogInterval = 5 * time.Second

// faultLog rate-limits hardware fault logging to one line per burst.
type faultLog struct {
	total      uint64
	suppressed uint64
	last       time.Time
}

// report logs err unless a fault was logged recently. The loop never stops
// on a fault; positions simply stay stale.
func (c *Controller) report(op string, err error) {
	if err == nil {
		return
	}
	f := &c.faults
	f.total++
	now := time.Now()
	if !f.last.IsZero() && now.Sub(f.last) < faultLogInterval {
		f.suppressed++
		return
	}
	c.logger.Warn("hardware fault", "op", op, "err", err, "total", f.total, "suppressed", f.suppressed)
	c.log("%s fault: %v", op, err)
	f.last = now
	f.suppressed = 0
}
