package imu

import (
	"fmt"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"
)

// MPU9250 reads tilt from the accelerometer of an MPU9250 on SPI.
type MPU9250 struct {
	dev *mpu9250.MPU9250
}

// NewMPU9250 opens the sensor on spiBus (e.g. "/dev/spidev0.0") with chip
// select on csPin. Any failure wraps ErrUnavailable so callers can fall
// back to running without balance.
func NewMPU9250(spiBus, csPin string) (*MPU9250, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: periph host init: %w", ErrUnavailable, err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("%w: cs pin %q not found", ErrUnavailable, csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiBus, cs)
	if err != nil {
		return nil, fmt.Errorf("%w: spi transport: %w", ErrUnavailable, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("%w: new device: %w", ErrUnavailable, err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("%w: init: %w", ErrUnavailable, err)
	}
	if err := dev.Calibrate(); err != nil {
		return nil, fmt.Errorf("%w: calibrate: %w", ErrUnavailable, err)
	}

	return &MPU9250{dev: dev}, nil
}

// ReadTilt samples the accelerometer.
func (m *MPU9250) ReadTilt() (Tilt, error) {
	ax, err := m.dev.GetAccelerationX()
	if err != nil {
		return Tilt{}, fmt.Errorf("read accel x: %w", err)
	}
	ay, err := m.dev.GetAccelerationY()
	if err != nil {
		return Tilt{}, fmt.Errorf("read accel y: %w", err)
	}
	az, err := m.dev.GetAccelerationZ()
	if err != nil {
		return Tilt{}, fmt.Errorf("read accel z: %w", err)
	}
	return TiltFromAccel(float64(ax), float64(ay), float64(az)), nil
}

func (m *MPU9250) Close() error {
	return nil
}
