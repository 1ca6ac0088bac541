package robot

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hexapod.toml")

	cfg := DefaultConfig()
	cfg.Plant.Base[3] = 310
	cfg.Filter.Q = 0.05
	cfg.Gait.StepInterval = Duration{80 * time.Millisecond}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if got.Plant.Base[3] != 310 {
		t.Errorf("base[3] = %d, want 310", got.Plant.Base[3])
	}
	if got.Filter.Q != 0.05 {
		t.Errorf("filter.q = %v, want 0.05", got.Filter.Q)
	}
	if got.Gait.StepInterval.Duration != 80*time.Millisecond {
		t.Errorf("gait.step_interval = %v", got.Gait.StepInterval)
	}
	if !ConfigExistsAt(path) {
		t.Error("ConfigExistsAt = false")
	}
}

func TestConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hexapod.toml")
	data := `
log_level = "debug"

[gait]
speed = 20
step_interval = "150ms"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.Gait.Speed != 20 || cfg.Gait.StepInterval.Duration != 150*time.Millisecond {
		t.Errorf("gait = %+v", cfg.Gait)
	}
	if cfg.Gait.HeightChange != 30 {
		t.Errorf("height_change = %d, want default 30", cfg.Gait.HeightChange)
	}
	if cfg.PID.Kp != 5 {
		t.Errorf("pid.kp = %v, want default 5", cfg.PID.Kp)
	}
}

func TestConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"short base", "[plant]\nbase = [300, 300]\n"},
		{"base out of range", "[plant]\nbase = [300,300,300,300,300,300,300,300,300,300,300,900]\n"},
		{"bad driver", "[plant]\ndriver = \"lego\"\n"},
		{"bad imu", "[imu]\ndriver = \"bno055\"\n"},
		{"bad duration", "[gait]\nstep_interval = \"soon\"\n"},
		{"zero q", "[filter]\nq = 0.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "hexapod.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfigFrom(path); err == nil {
				t.Error("LoadConfigFrom accepted invalid config")
			}
		})
	}
}
