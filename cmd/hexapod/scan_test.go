package main

import (
	"testing"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

func TestBusInfo_Complete(t *testing.T) {
	full := make([]feetech.FoundServo, 0, 12)
	for id := 1; id <= 12; id++ {
		full = append(full, feetech.FoundServo{ID: id})
	}

	tests := []struct {
		name   string
		servos []feetech.FoundServo
		want   bool
	}{
		{"all twelve", full, true},
		{"missing one", full[:11], false},
		{"arm ids", full[:6], false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		if got := (busInfo{servos: tt.servos}).complete(); got != tt.want {
			t.Errorf("%s: complete() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
