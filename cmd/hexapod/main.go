package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/gwillem/hexapod/pkg/robot"
)

type Options struct {
	Config   string `short:"c" long:"config" env:"HEXAPOD_CONFIG" default:"hexapod.toml" description:"Configuration file"`
	LogLevel string `long:"log-level" env:"HEXAPOD_LOG_LEVEL" description:"Log level (debug, info, warn, error); overrides the config file"`

	Run       RunCommand       `command:"run" description:"Start the control loop (terminal UI or headless)"`
	Calibrate CalibrateCommand `command:"calibrate" description:"Adjust the standing position of each servo"`
	Scan      ScanCommand      `command:"scan" description:"Find serial servo buses and list their servos"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	// .env is optional
	_ = godotenv.Load()

	parser.LongDescription = "Hexapod - gait and balance controller for a six legged robot"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist yet.
func loadConfig() (*robot.Config, error) {
	var cfg *robot.Config
	if robot.ConfigExistsAt(opts.Config) {
		c, err := robot.LoadConfigFrom(opts.Config)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = robot.DefaultConfig()
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	return cfg, nil
}
