package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gwillem/hexapod/pkg/imu"
	"github.com/gwillem/hexapod/pkg/robot"
)

// openDriver builds the actuator backend named in the config. sim forces
// the in-memory driver.
func openDriver(ctx context.Context, cfg robot.PlantConfig, sim bool) (robot.Driver, error) {
	driver := cfg.Driver
	if sim {
		driver = robot.DriverSim
	}
	switch driver {
	case robot.DriverFeetech:
		if cfg.Port == "" {
			return nil, fmt.Errorf("feetech driver needs a port, run 'hexapod scan' first")
		}
		return robot.NewFeetechDriver(ctx, cfg.Port)
	case robot.DriverPCA9685:
		return robot.NewPCA9685Driver(cfg.I2CBus, cfg.I2CAddress)
	case robot.DriverSim:
		return robot.NewMemoryDriver(), nil
	default:
		return nil, fmt.Errorf("unknown plant driver %q", driver)
	}
}

// openPlant opens the driver and wraps it in a plant and body built from
// the stored calibration.
func openPlant(ctx context.Context, cfg *robot.Config, sim bool) (*robot.Plant, *robot.Body, error) {
	cal, err := cfg.Plant.Calibration()
	if err != nil {
		return nil, nil, fmt.Errorf("load calibration: %w", err)
	}
	driver, err := openDriver(ctx, cfg.Plant, sim)
	if err != nil {
		return nil, nil, fmt.Errorf("open plant: %w", err)
	}
	return robot.NewPlant(driver, cfg.Plant.Limits, cal), robot.NewBody(cal, cfg.Plant.Reverse), nil
}

// openIMU returns the configured tilt sensor. A missing MPU9250 is not
// fatal: the robot runs without balancing.
func openIMU(cfg robot.IMUConfig, sim bool, logger *slog.Logger) imu.Reader {
	driver := cfg.Driver
	if sim && driver == robot.IMUMPU9250 {
		driver = robot.IMUSim
	}
	switch driver {
	case robot.IMUMPU9250:
		m, err := imu.NewMPU9250(cfg.SPIBus, cfg.CSPin)
		if err != nil {
			logger.Warn("imu not available, balancing disabled", "err", err)
			return imu.None{}
		}
		return m
	case robot.IMUSim:
		return imu.NewSim(imu.SimConfig{
			Noise:                cfg.Noise,
			Disturbance:          cfg.Disturbance,
			DisturbanceMagnitude: cfg.DisturbanceMagnitude,
		})
	default:
		return imu.None{}
	}
}
