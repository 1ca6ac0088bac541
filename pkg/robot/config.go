package robot

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultConfigFile = "hexapod.toml"

// Plant driver names.
const (
	DriverFeetech = "feetech"
	DriverPCA9685 = "pca9685"
	DriverSim     = "sim"
)

// IMU driver names.
const (
	IMUMPU9250 = "mpu9250"
	IMUSim     = "sim"
	IMUNone    = "none"
)

// Duration is a time.Duration that reads and writes as "100ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds the robot configuration.
type Config struct {
	LogLevel string        `toml:"log_level"`
	Plant    PlantConfig   `toml:"plant"`
	IMU      IMUConfig     `toml:"imu"`
	Gait     GaitConfig    `toml:"gait"`
	Balance  BalanceConfig `toml:"balance"`
	Filter   FilterConfig  `toml:"filter"`
	PID      PIDConfig     `toml:"pid"`
	Hop      HopConfig     `toml:"hop"`
}

// PlantConfig selects and configures the actuator backend.
type PlantConfig struct {
	Driver     string `toml:"driver"`
	Port       string `toml:"port,omitempty"`
	I2CBus     string `toml:"i2c_bus,omitempty"`
	I2CAddress uint16 `toml:"i2c_address,omitempty"`
	Limits     Limits `toml:"limits"`
	Reverse    bool   `toml:"reverse"`
	Base       []int  `toml:"base"`
}

// Calibration returns the base positions as a fixed array.
func (p PlantConfig) Calibration() (Calibration, error) {
	var cal Calibration
	if len(p.Base) != NumChannels {
		return cal, fmt.Errorf("base has %d entries, want %d", len(p.Base), NumChannels)
	}
	copy(cal[:], p.Base)
	return cal, nil
}

// SetCalibration stores cal as the base positions.
func (p *PlantConfig) SetCalibration(cal Calibration) {
	p.Base = append(p.Base[:0], cal[:]...)
}

// IMUConfig selects the tilt sensor. Driver "none" disables balancing.
type IMUConfig struct {
	Driver string `toml:"driver"`
	SPIBus string `toml:"spi_bus,omitempty"`
	CSPin  string `toml:"cs_pin,omitempty"`

	// Simulator settings.
	Noise                float64 `toml:"noise"`
	Disturbance          bool    `toml:"disturbance"`
	DisturbanceMagnitude float64 `toml:"disturbance_magnitude"`
}

type GaitConfig struct {
	Speed         int      `toml:"speed"`
	HeightChange  int      `toml:"height_change"`
	StepInterval  Duration `toml:"step_interval"`
	Smooth        bool     `toml:"smooth"`
	Subdivisions  int      `toml:"subdivisions"`
	PhaseDuration Duration `toml:"phase_duration"`
	StancePress   int      `toml:"stance_press"`
}

type BalanceConfig struct {
	SteadySwing int      `toml:"steady_swing"`
	Mid         int      `toml:"mid"`
	Min         int      `toml:"min"`
	Max         int      `toml:"max"`
	TargetX     float64  `toml:"target_x"`
	TargetY     float64  `toml:"target_y"`
	Interval    Duration `toml:"interval"`
}

type FilterConfig struct {
	Q             float64 `toml:"q"`
	R             float64 `toml:"r"`
	AlphaR        float64 `toml:"alpha_r"`
	AlphaQ        float64 `toml:"alpha_q"`
	JumpThreshold float64 `toml:"jump_threshold"`
	History       int     `toml:"history"`
	MinSamples    int     `toml:"min_samples"`
	Batch         int     `toml:"batch"`
}

type PIDConfig struct {
	Kp         float64 `toml:"kp"`
	Ki         float64 `toml:"ki"`
	Kd         float64 `toml:"kd"`
	Windup     float64 `toml:"windup"`
	SpeedScale float64 `toml:"speed_scale"`
}

// HopConfig holds the four hop poses (one value per channel) and the
// hold time after each.
type HopConfig struct {
	Crouch         []int    `toml:"crouch"`
	Launch         []int    `toml:"launch"`
	Landing        []int    `toml:"landing"`
	CrouchDelay    Duration `toml:"crouch_delay"`
	LaunchDelay    Duration `toml:"launch_delay"`
	AirTime        Duration `toml:"air_time"`
	LandingDelay   Duration `toml:"landing_delay"`
	SampleInterval Duration `toml:"sample_interval"`
}

func uniform(v int) []int {
	out := make([]int, NumChannels)
	for i := range out {
		out[i] = v
	}
	return out
}

// DefaultConfig returns the configuration of a stock robot on the
// simulated backend.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Plant: PlantConfig{
			Driver:     DriverSim,
			I2CAddress: 0x40,
			Limits:     Limits{Min: 100, Max: 560},
			Base:       uniform(DefaultCenter),
		},
		IMU: IMUConfig{
			Driver:               IMUSim,
			SPIBus:               "/dev/spidev0.0",
			CSPin:                "GPIO8",
			Noise:                0.5,
			DisturbanceMagnitude: 10,
		},
		Gait: GaitConfig{
			Speed:         35,
			HeightChange:  30,
			StepInterval:  Duration{100 * time.Millisecond},
			Subdivisions:  17,
			PhaseDuration: Duration{170 * time.Millisecond},
			StancePress:   10,
		},
		Balance: BalanceConfig{
			SteadySwing: 73,
			Mid:         45,
			Min:         -40,
			Max:         130,
			Interval:    Duration{20 * time.Millisecond},
		},
		Filter: FilterConfig{
			Q:             0.01,
			R:             0.1,
			AlphaR:        0.01,
			AlphaQ:        0.001,
			JumpThreshold: 60,
			History:       50,
			MinSamples:    10,
			Batch:         30,
		},
		PID: PIDConfig{
			Kp:         5,
			Ki:         0,
			Kd:         0.01,
			Windup:     20,
			SpeedScale: 1,
		},
		Hop: HopConfig{
			Crouch:         uniform(450),
			Launch:         uniform(520),
			Landing:        uniform(400),
			CrouchDelay:    Duration{200 * time.Millisecond},
			LaunchDelay:    Duration{150 * time.Millisecond},
			AirTime:        Duration{300 * time.Millisecond},
			LandingDelay:   Duration{250 * time.Millisecond},
			SampleInterval: Duration{20 * time.Millisecond},
		},
	}
}

// Validate checks the values that would otherwise fail at runtime.
func (c *Config) Validate() error {
	var errs []error
	cal, err := c.Plant.Calibration()
	if err != nil {
		errs = append(errs, fmt.Errorf("plant: %w", err))
	} else if err := cal.Validate(c.Plant.Limits); err != nil {
		errs = append(errs, fmt.Errorf("plant: %w", err))
	}
	switch c.Plant.Driver {
	case DriverFeetech, DriverPCA9685, DriverSim:
	default:
		errs = append(errs, fmt.Errorf("plant: unknown driver %q", c.Plant.Driver))
	}
	switch c.IMU.Driver {
	case IMUMPU9250, IMUSim, IMUNone:
	default:
		errs = append(errs, fmt.Errorf("imu: unknown driver %q", c.IMU.Driver))
	}
	for name, pose := range map[string][]int{"crouch": c.Hop.Crouch, "launch": c.Hop.Launch, "landing": c.Hop.Landing} {
		if len(pose) != NumChannels {
			errs = append(errs, fmt.Errorf("hop: %s has %d entries, want %d", name, len(pose), NumChannels))
		}
	}
	if c.Gait.Subdivisions < 1 {
		errs = append(errs, fmt.Errorf("gait: subdivisions must be positive"))
	}
	if c.Filter.Q <= 0 || c.Filter.R <= 0 {
		errs = append(errs, fmt.Errorf("filter: q and r must be positive"))
	}
	if c.Balance.Min > c.Balance.Max {
		errs = append(errs, fmt.Errorf("balance: min %d above max %d", c.Balance.Min, c.Balance.Max))
	}
	return errors.Join(errs...)
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file. Keys missing
// from the file keep their default values.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	return ConfigExistsAt(DefaultConfigFile)
}

// ConfigExistsAt returns true if path exists.
func ConfigExistsAt(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
