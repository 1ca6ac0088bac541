package robot

import (
	"context"
	"fmt"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// FeetechDriver drives serial bus servos. Channel n maps to servo ID n+1.
type FeetechDriver struct {
	bus   *feetech.Bus
	group *feetech.ServoGroup
}

// NewFeetechDriver opens the bus on port and enables torque on all
// twelve servos.
func NewFeetechDriver(ctx context.Context, port string) (*FeetechDriver, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	ids := make([]int, NumChannels)
	for ch := range ids {
		ids[ch] = ServoID(ch)
	}
	group := feetech.NewServoGroupByIDs(bus, ids...)

	if err := group.EnableAll(ctx); err != nil {
		bus.Close()
		return nil, fmt.Errorf("enable torque: %w", err)
	}

	return &FeetechDriver{bus: bus, group: group}, nil
}

// ServoID returns the bus ID of a channel.
func ServoID(channel int) int {
	return channel + 1
}

// WritePosition sends one goal position.
func (d *FeetechDriver) WritePosition(ctx context.Context, channel, value int) error {
	if err := d.group.SetPositions(ctx, feetech.PositionMap{ServoID(channel): value}); err != nil {
		return fmt.Errorf("write position: %w", err)
	}
	return nil
}

// ReadPositions reads the present position of every servo, keyed by channel.
func (d *FeetechDriver) ReadPositions(ctx context.Context) (map[int]int, error) {
	raw, err := d.group.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	out := make(map[int]int, len(raw))
	for id, pos := range raw {
		out[id-1] = pos
	}
	return out, nil
}

// Close disables torque and closes the bus.
func (d *FeetechDriver) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	disableErr := d.group.DisableAll(ctx)
	if err := d.bus.Close(); err != nil {
		return err
	}
	return disableErr
}
