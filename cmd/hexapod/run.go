package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/hexapod/internal/log"
	"github.com/gwillem/hexapod/pkg/command"
	"github.com/gwillem/hexapod/pkg/control"
)

type RunCommand struct {
	Headless  bool   `long:"headless" description:"Read text commands from stdin instead of starting the terminal UI"`
	Sim       bool   `long:"sim" description:"Use the simulated plant and IMU"`
	SaveGains bool   `long:"save-gains" description:"Write tuned filter and PID gains back to the config file on exit"`
	LogFile   string `long:"log-file" default:"hexapod.log" description:"Log destination while the terminal UI is running"`
}

const (
	headerHeight = 3 // title, status, blank
	legendHeight = 2
	statsHeight  = 3
	footerHeight = 8 // log box + help
	maxLogs      = 5
	borderSize   = 2
	tiltRange    = 30.0
)

// Series colors for the tilt chart.
var seriesColors = []struct {
	name  string
	color string
}{
	{"raw_x", "240"},
	{"raw_y", "245"},
	{"kalman_x", "196"}, // red
	{"kalman_y", "51"},  // cyan
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	modeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type keyMap struct {
	Forward  key.Binding
	Backward key.Binding
	Left     key.Binding
	Right    key.Binding
	Stand    key.Binding
	Hop      key.Binding
	Balance  key.Binding
	Smooth   key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Forward: key.NewBinding(
		key.WithKeys("w", "up"),
		key.WithHelp("w/↑", "forward"),
	),
	Backward: key.NewBinding(
		key.WithKeys("s", "down"),
		key.WithHelp("s/↓", "backward"),
	),
	Left: key.NewBinding(
		key.WithKeys("a", "left"),
		key.WithHelp("a/←", "turn left"),
	),
	Right: key.NewBinding(
		key.WithKeys("d", "right"),
		key.WithHelp("d/→", "turn right"),
	),
	Stand: key.NewBinding(
		key.WithKeys(" ", "x"),
		key.WithHelp("space", "stand"),
	),
	Hop: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "hop"),
	),
	Balance: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "balance"),
	),
	Smooth: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "smooth gait"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Forward, k.Backward, k.Left, k.Right, k.Stand, k.Hop, k.Balance, k.Smooth, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type runModel struct {
	ctrl     *control.Controller
	dispatch *command.Dispatcher
	chart    *streamlinechart.Model
	help     help.Model
	tel      control.Telemetry
	width    int
	height   int
	logs     []string
	quitting bool
}

type stateMsg control.Telemetry
type logMsg string

func waitForState(ctrl *control.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *control.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

func newRunModel(ctrl *control.Controller, d *command.Dispatcher) runModel {
	chart := streamlinechart.New(80, 16,
		streamlinechart.WithYRange(-tiltRange, tiltRange),
	)
	for _, s := range seriesColors {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.color))
		chart.SetDataSetStyles(s.name, runes.ThinLineStyle, style)
	}
	return runModel{
		ctrl:     ctrl,
		dispatch: d,
		chart:    &chart,
		help:     help.New(),
		tel:      ctrl.Telemetry(),
	}
}

func (m *runModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *runModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 16
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-statsHeight-footerHeight-borderSize, 8)
	return width, height
}

// send runs a wire command through the dispatcher so the keyboard and
// remote clients share one code path.
func (m *runModel) send(cmds ...string) {
	for _, c := range cmds {
		if _, err := m.dispatch.Dispatch(c); err != nil {
			m.addLog(errStyle.Render(err.Error()))
		}
	}
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.chart.Resize(m.chartSize())
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Forward):
			m.send("TS", "forward")
		case key.Matches(msg, keys.Backward):
			m.send("TS", "backward")
		case key.Matches(msg, keys.Left):
			m.send("left")
		case key.Matches(msg, keys.Right):
			m.send("right")
		case key.Matches(msg, keys.Stand):
			m.send("TS", "DS")
		case key.Matches(msg, keys.Hop):
			m.send("hop")
		case key.Matches(msg, keys.Balance):
			if m.tel.Mode == control.Balancing {
				m.send("funEnd")
			} else {
				m.send("steady")
			}
		case key.Matches(msg, keys.Smooth):
			if m.ctrl.Intent().Smooth {
				m.send("Smooth_off")
			} else {
				m.send("Smooth_on")
			}
		}
		return m, nil

	case stateMsg:
		m.tel = control.Telemetry(msg)
		if m.tel.SensorAvailable {
			m.chart.PushDataSet("raw_x", m.tel.Raw.X)
			m.chart.PushDataSet("raw_y", m.tel.Raw.Y)
			m.chart.PushDataSet("kalman_x", m.tel.FilterX.Estimate)
			m.chart.PushDataSet("kalman_y", m.tel.FilterY.Estimate)
			m.chart.DrawAll()
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m runModel) View() string {
	if m.quitting {
		return "Hexapod stopped.\n"
	}

	var sb strings.Builder
	t := m.tel

	sb.WriteString(titleStyle.Render("Hexapod"))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n")
	sb.WriteString(modeStyle.Render(t.Mode.String()))
	sb.WriteString(fmt.Sprintf("  direction %s  turn %s  phase %s  smooth %v",
		t.Intent.Direction, t.Intent.Turn, t.Phase, t.Intent.Smooth))
	sb.WriteString("\n\n")

	if t.SensorAvailable {
		sb.WriteString(chartStyle.Render(m.chart.View()))
		sb.WriteString("\n")
		sb.WriteString(renderLegend())
		sb.WriteString("\n")
	} else {
		sb.WriteString(statusStyle.Render("No IMU: balancing disabled"))
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("stability %5.1f%%  balance error %.2f  speed scale %.2f  writes %d  faults %d\n",
		t.Stability, t.BalanceError, t.SpeedScale, t.Writes, t.Faults))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("positions %v", t.Positions)))
	sb.WriteString("\n")
	if t.LastHop != nil {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("last hop %s  %v  peak tilt %.1f",
			t.LastHop.ID[:8], t.LastHop.Duration.Round(time.Millisecond), t.LastHop.PeakTilt)))
	}
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))
	logLines := statusStyle.Render("Waiting for events")
	if len(m.logs) > 0 {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")
	sb.WriteString(m.help.View(keys))

	return sb.String()
}

func renderLegend() string {
	var items []string
	for _, s := range seriesColors {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(s.color)).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+s.name)
	}
	return strings.Join(items, "  ")
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ccfg, err := control.ConfigFrom(cfg)
	if err != nil {
		return err
	}

	var logOut io.Writer = os.Stderr
	if !c.Headless {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := log.Init(cfg.LogLevel, logOut)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plant, body, err := openPlant(ctx, cfg, c.Sim)
	if err != nil {
		return err
	}
	defer plant.Close()

	sensor := openIMU(cfg.IMU, c.Sim, logger)
	defer sensor.Close()

	ctrl, err := control.New(plant, body, sensor, ccfg, logger)
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}
	dispatch := command.NewDispatcher(ctrl, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Run(ctx)
	}()

	if c.Headless {
		go func() {
			for msg := range ctrl.Logs() {
				logger.Debug(msg)
			}
		}()
		// Serve blocks on stdin, so a signal must not wait for it.
		served := make(chan error, 1)
		go func() {
			served <- dispatch.Serve(ctx, os.Stdin, os.Stdout)
		}()
		select {
		case <-ctx.Done():
		case err := <-served:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("command input", "err", err)
			}
		}
	} else {
		p := tea.NewProgram(newRunModel(ctrl, dispatch), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			logger.Error("terminal ui", "err", err)
		}
	}

	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("control loop", "err", err)
	}

	if c.SaveGains {
		ctrl.StoreGains(cfg)
		if err := cfg.SaveTo(opts.Config); err != nil {
			return fmt.Errorf("save gains: %w", err)
		}
		fmt.Printf("Gains saved to %s\n", opts.Config)
	}
	return nil
}
