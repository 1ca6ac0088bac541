package control

import "errors"

var (
	// ErrInvalidCommand is returned for malformed requests. The loop
	// state is left unchanged.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrSensorUnavailable is returned when balancing is requested without
	// a working tilt sensor.
	ErrSensorUnavailable = errors.New("sensor unavailable")

	ErrAlreadyRunning = errors.New("control loop already running")
)
