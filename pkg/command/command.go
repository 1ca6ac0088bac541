// Package command maps the text commands sent by the remote clients onto
// the control API.
package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gwillem/hexapod/pkg/control"
	"github.com/gwillem/hexapod/pkg/gait"
)

// ErrUnsupported is returned for recognised commands this robot does not
// implement (camera head, lights, vision, switches).
var ErrUnsupported = errors.New("unsupported command")

// Controller is the part of *control.Controller the dispatcher uses.
type Controller interface {
	SetMode(m control.Mode) error
	SetDirection(d control.Direction) error
	SetTurn(t gait.Turn) error
	SetSmooth(on bool)
	Mode() control.Mode
	UpdateGains(axis control.Axis, param string, value float64) error
	Telemetry() control.Telemetry
}

var unsupportedPrefixes = []string{
	"head", "ws", "FindColor", "WatchDog", "Switch_", "police", "speech",
}

// Dispatcher executes single commands.
type Dispatcher struct {
	ctrl   Controller
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher driving ctrl.
func NewDispatcher(ctrl Controller, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{ctrl: ctrl, logger: logger.With("component", "command")}
}

// Dispatch runs one command and returns the reply for the client.
func (d *Dispatcher) Dispatch(line string) (string, error) {
	cmd := strings.TrimSpace(line)
	if cmd == "" {
		return "", fmt.Errorf("%w: empty command", control.ErrInvalidCommand)
	}

	if cmd == "get_monitor_data" {
		data, err := d.ctrl.Telemetry().JSON()
		if err != nil {
			return "", fmt.Errorf("encode telemetry: %w", err)
		}
		return string(data), nil
	}
	if strings.HasPrefix(cmd, "param_update") {
		if err := d.paramUpdate(cmd); err != nil {
			return "param_error", err
		}
		return "param_updated", nil
	}

	var err error
	switch cmd {
	case "forward":
		err = d.ctrl.SetDirection(control.Forward)
	case "backward":
		err = d.ctrl.SetDirection(control.Backward)
	case "DS", "stand":
		err = d.ctrl.SetDirection(control.Stand)
	case "left", "leftside":
		err = d.ctrl.SetTurn(gait.TurnLeft)
	case "right", "rightside":
		err = d.ctrl.SetTurn(gait.TurnRight)
	case "TS":
		err = d.ctrl.SetTurn(gait.NoTurn)
	case "hop":
		err = d.ctrl.SetMode(control.Hopping)
	case "steady", "KD":
		err = d.ctrl.SetMode(control.Balancing)
	case "funEnd":
		d.leaveBalance()
		return "FunEnd", nil
	case "Smooth_on", "automatic":
		d.ctrl.SetSmooth(true)
	case "Smooth_off":
		d.ctrl.SetSmooth(false)
	case "automaticOff", "speechOff":
		d.ctrl.SetSmooth(false)
		d.leaveBalance()
	default:
		for _, p := range unsupportedPrefixes {
			if strings.HasPrefix(cmd, p) {
				return "", fmt.Errorf("%w: %s", ErrUnsupported, cmd)
			}
		}
		return "", fmt.Errorf("%w: unknown command %q", control.ErrInvalidCommand, cmd)
	}
	if err != nil {
		return "", err
	}
	return cmd, nil
}

func (d *Dispatcher) leaveBalance() {
	if d.ctrl.Mode() == control.Balancing {
		_ = d.ctrl.SetMode(control.Idle)
	}
}

// paramUpdate handles "param_update <name> <value> [x|y|both]".
func (d *Dispatcher) paramUpdate(cmd string) error {
	fields := strings.Fields(cmd)
	if len(fields) != 3 && len(fields) != 4 {
		return fmt.Errorf("%w: want param_update <name> <value> [axis]", control.ErrInvalidCommand)
	}
	value, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return fmt.Errorf("%w: value %q: %w", control.ErrInvalidCommand, fields[2], err)
	}
	axis := control.AxisBoth
	if len(fields) == 4 {
		switch strings.ToLower(fields[3]) {
		case "x":
			axis = control.AxisX
		case "y":
			axis = control.AxisY
		case "both":
		default:
			return fmt.Errorf("%w: axis %q", control.ErrInvalidCommand, fields[3])
		}
	}
	return d.ctrl.UpdateGains(axis, fields[1], value)
}

// Serve reads newline separated commands from r until EOF or ctx is done
// and writes one reply line per command to w.
func (d *Dispatcher) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		reply, err := d.Dispatch(line)
		if err != nil {
			d.logger.Warn("command rejected", "command", line, "err", err)
			reply = "error: " + err.Error()
		}
		if _, err := fmt.Fprintln(w, reply); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
	}
	return sc.Err()
}
