// Package hexapod drives a six legged robot with two alternating tripod
// gaits, IMU based balancing and a scripted hop.
//
// # Installation
//
//	go install github.com/gwillem/hexapod/cmd/hexapod@latest
//
// # Usage
//
// Find the servo bus and store it in hexapod.toml:
//
//	hexapod scan
//
// Trim the standing pose of each servo:
//
//	hexapod calibrate
//
// Start the control loop with the terminal UI, or without hardware:
//
//	hexapod run
//	hexapod run --sim
//
// With --headless the legacy text commands ("forward", "steady",
// "param_update P 4", "get_monitor_data", ...) are read from stdin.
//
// # Packages
//
//   - cmd/hexapod: CLI with run, calibrate and scan commands
//   - pkg/robot: leg layout, calibration, config and servo drivers
//   - pkg/imu: tilt sensors (MPU9250 and simulator)
//   - pkg/filter: adaptive Kalman tilt filter
//   - pkg/pid: orientation PID controller
//   - pkg/gait: tripod gait sequencer
//   - pkg/hop: hop choreography
//   - pkg/control: mode handling and the control loop
//   - pkg/command: text command dispatcher
package hexapod
