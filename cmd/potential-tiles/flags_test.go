package main

import (
	"flag"
	"testing"
)

// TestFlagDefaults verifies the zoom range and opacity default to the
// pipeline config built-ins.
func TestFlagDefaults(t *testing.T) {
	tests := []struct {
		flag string
		want string
	}{
		{"min-zoom", "0"},
		{"max-zoom", "12"},
		{"opacity", "0.85"},
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
