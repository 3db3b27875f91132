package main

import (
	"flag"
	"testing"
)

// TestFlagDefaults verifies the sampling flags default to the pipeline
// config built-ins.
func TestFlagDefaults(t *testing.T) {
	tests := []struct {
		flag string
		want string
	}{
		{"resolution", "8"},
		{"max-pixels", "1000000"},
		{"seed", "42"},
		{"threshold", ""},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := flag.CommandLine.Lookup(tt.flag)
			if f == nil {
				t.Fatalf("flag -%s not defined", tt.flag)
			}
			if f.DefValue != tt.want {
				t.Errorf("expected -%s default %q, got %q", tt.flag, tt.want, f.DefValue)
			}
		})
	}
}

func TestFlagDefaultsFollowConfig(t *testing.T) {
	if *resolution != defaults.GetResolution() {
		t.Errorf("expected resolution %d, got %d", defaults.GetResolution(), *resolution)
	}
	if *maxPixels != defaults.GetMaxPixels() {
		t.Errorf("expected max-pixels %d, got %d", defaults.GetMaxPixels(), *maxPixels)
	}
	if *seed != defaults.GetSeed() {
		t.Errorf("expected seed %d, got %d", defaults.GetSeed(), *seed)
	}
}
