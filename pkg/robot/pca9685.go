package robot

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/host/v3"
)

// PCA9685Driver drives hobby servos from a 16 channel PWM board.
// Positions are raw 12-bit off counts at 50Hz, so 300 is roughly centre.
type PCA9685Driver struct {
	bus i2c.BusCloser
	dev *pca9685.Dev
}

// NewPCA9685Driver opens the named I2C bus ("" for the first one) and
// configures the board at address for 50Hz servo pulses.
func NewPCA9685Driver(busName string, address uint16) (*PCA9685Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	if address == 0 {
		address = pca9685.I2CAddr
	}
	dev, err := pca9685.NewI2C(bus, address)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("pca9685 at 0x%02x: %w", address, err)
	}
	if err := dev.SetPwmFreq(50 * physic.Hertz); err != nil {
		bus.Close()
		return nil, fmt.Errorf("set pwm frequency: %w", err)
	}
	return &PCA9685Driver{bus: bus, dev: dev}, nil
}

// WritePosition sets the pulse width of one channel.
func (d *PCA9685Driver) WritePosition(_ context.Context, channel, value int) error {
	return d.dev.SetPwm(channel, 0, gpio.Duty(value))
}

// Close releases every channel and closes the bus.
func (d *PCA9685Driver) Close() error {
	releaseErr := d.dev.SetAllPwm(0, 0)
	if err := d.bus.Close(); err != nil {
		return err
	}
	return releaseErr
}
