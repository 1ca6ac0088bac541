package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/hexapod/pkg/robot"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type CalibrateCommand struct {
	Sim        bool `long:"sim" description:"Use the simulated plant"`
	FromServos bool `long:"from-servos" description:"Start from the servos' present positions instead of the stored calibration"`
}

func (c *CalibrateCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println(headerStyle.Render("Hexapod Calibration"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━"))
	fmt.Println()

	ctx := context.Background()
	plant, body, err := openPlant(ctx, cfg, c.Sim)
	if err != nil {
		return err
	}
	defer plant.Close()

	if c.FromServos {
		if err := startFromServos(ctx, plant, body); err != nil {
			return err
		}
		fmt.Println("Starting from the present servo positions.")
	} else if err := plant.Apply(body.Stand()); err != nil {
		fmt.Println(errStyle.Render(fmt.Sprintf("Warning: %v", err)))
	}

	p := tea.NewProgram(newCalibrationModel(plant, body))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("run calibration: %w", err)
	}
	cm := final.(calibrationModel)
	if cm.cancelled {
		fmt.Println("Calibration cancelled, nothing saved.")
		return nil
	}

	cal := body.Calibration()
	fmt.Println(renderCalibration(cal, -1))
	fmt.Println()

	save := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Save calibration to %s?", opts.Config)).
				Affirmative("Save").
				Negative("Discard").
				Value(&save),
		),
	)
	if err := form.Run(); err != nil || !save {
		fmt.Println("Calibration discarded.")
		return nil
	}

	cfg.Plant.SetCalibration(cal)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("calibration rejected: %w", err)
	}
	if err := cfg.SaveTo(opts.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Println(successStyle.Render("Calibration saved."))
	return nil
}

// startFromServos reads where the servos are and makes that the base of
// every channel, clamped to the legal range.
func startFromServos(ctx context.Context, plant *robot.Plant, body *robot.Body) error {
	if err := plant.Sync(ctx); err != nil {
		return fmt.Errorf("read servo positions: %w", err)
	}
	for ch := range robot.NumChannels {
		if err := body.Recenter(ch, plant.Limits().Clamp(plant.Position(ch))); err != nil {
			return err
		}
	}
	return nil
}

// calibrationModel moves one channel at a time and makes the result the
// new base position.
type calibrationModel struct {
	plant     *robot.Plant
	body      *robot.Body
	selected  int
	err       error
	cancelled bool
	done      bool
}

func newCalibrationModel(plant *robot.Plant, body *robot.Body) calibrationModel {
	return calibrationModel{plant: plant, body: body}
}

func (m calibrationModel) Init() tea.Cmd {
	return nil
}

func (m *calibrationModel) nudge(delta int) {
	ch := m.selected
	v := m.plant.Limits().Clamp(m.body.Base(ch) + delta)
	if err := m.plant.SetPosition(ch, v); err != nil {
		m.err = err
		return
	}
	m.err = m.body.Recenter(ch, v)
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch km.String() {
	case "up", "k":
		m.selected = (m.selected + robot.NumChannels - 1) % robot.NumChannels
	case "down", "j":
		m.selected = (m.selected + 1) % robot.NumChannels
	case "left", "h":
		m.nudge(-1)
	case "right", "l":
		m.nudge(1)
	case "shift+left", "H":
		m.nudge(-10)
	case "shift+right", "L":
		m.nudge(10)
	case "r":
		m.nudge(robot.DefaultCenter - m.body.Base(m.selected))
	case "enter":
		m.done = true
		return m, tea.Quit
	case "esc", "q", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m calibrationModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(renderCalibration(m.body.Calibration(), m.selected))
	sb.WriteString("\n")
	if m.err != nil {
		sb.WriteString(errStyle.Render(m.err.Error()))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("↑/↓ select  ←/→ ±1  H/L ±10  r reset  enter done  esc cancel"))
	return sb.String()
}

func renderCalibration(cal robot.Calibration, selected int) string {
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableChannelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableSelectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true).Padding(0, 1)
	tableOffsetStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	offsets := cal.Offsets(robot.DefaultCenter)
	rows := make([][]string, 0, robot.NumChannels)
	for ch, v := range cal {
		rows = append(rows, []string{
			fmt.Sprintf("%d", ch),
			robot.ChannelLabel(ch),
			fmt.Sprintf("%d", v),
			fmt.Sprintf("%+d", offsets[ch]),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Ch", "Joint", "Base", "Offset").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case row == selected:
				return tableSelectedStyle
			case col == 1:
				return tableChannelStyle
			case col == 3 && offsets[row] != 0:
				return tableOffsetStyle
			default:
				return tableCellStyle
			}
		})
	return t.Render()
}
