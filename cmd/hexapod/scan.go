package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/hexapod/pkg/robot"
)

type ScanCommand struct {
	NoSave bool `long:"no-save" description:"Only list buses, do not update the config file"`
}

type busInfo struct {
	port   string
	servos []feetech.FoundServo
}

// complete reports whether every leg servo answered.
func (b busInfo) complete() bool {
	ids := make(map[int]bool, len(b.servos))
	for _, s := range b.servos {
		ids[s.ID] = true
	}
	for ch := range robot.NumChannels {
		if !ids[robot.ServoID(ch)] {
			return false
		}
	}
	return true
}

func (c *ScanCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Hexapod Scan"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━"))
	fmt.Println()
	fmt.Println("Scanning serial ports for servo buses...")
	fmt.Println()

	buses := findBuses()
	if len(buses) == 0 {
		fmt.Println("No servo buses found.")
		fmt.Println("Make sure the servo board is connected and powered on.")
		return nil
	}

	fmt.Println(renderBuses(buses))
	fmt.Println()

	if c.NoSave {
		return nil
	}

	var options []huh.Option[string]
	for _, b := range buses {
		label := fmt.Sprintf("%s (%d servos)", b.port, len(b.servos))
		if !b.complete() {
			label += " incomplete"
		}
		options = append(options, huh.NewOption(label, b.port))
	}
	options = append(options, huh.NewOption("Keep current configuration", ""))

	var port string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which bus drives the legs?").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil || port == "" {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Plant.Driver = robot.DriverFeetech
	cfg.Plant.Port = port
	if err := cfg.SaveTo(opts.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Using %s, saved to %s", port, opts.Config)))
	fmt.Println()
	fmt.Println("Next: " + headerStyle.Render("hexapod calibrate"))
	return nil
}

func findBuses() []busInfo {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var buses []busInfo
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		bus, err := feetech.NewBus(feetech.BusConfig{
			Port:     port,
			BaudRate: 1_000_000,
			Protocol: feetech.ProtocolSTS,
			Timeout:  100 * time.Millisecond,
		})
		if err != nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		servos, err := bus.Scan(ctx, robot.ServoID(0), robot.ServoID(robot.NumChannels-1))
		cancel()
		bus.Close()

		if err != nil || len(servos) == 0 {
			continue
		}
		fmt.Printf("  Found %d servo(s) on %s\n", len(servos), port)
		buses = append(buses, busInfo{port: port, servos: servos})
	}
	fmt.Println()
	return buses
}

func renderBuses(buses []busInfo) string {
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)

	var rows [][]string
	for _, b := range buses {
		for _, s := range b.servos {
			label := "-"
			if ch := s.ID - 1; ch >= 0 && ch < robot.NumChannels {
				label = robot.ChannelLabel(ch)
			}
			rows = append(rows, []string{b.port, fmt.Sprintf("%d", s.ID), fmt.Sprintf("%v", s.Model), label})
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Port", "ID", "Model", "Joint").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	return t.Render()
}
