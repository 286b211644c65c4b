package main

import (
	"slices"
	"testing"
)

func TestRouteArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		hasDisplay bool
		want       []string
	}{
		{"no args with display", []string{"cloudfm"}, true, []string{"cloudfm", "gui"}},
		{"no args headless", []string{"cloudfm"}, false, []string{"cloudfm"}},
		{"subcommand", []string{"cloudfm", "files", "list"}, true, []string{"cloudfm", "files", "list"}},
		{"force gui", []string{"cloudfm", "--gui", "--debug"}, false, []string{"cloudfm", "--debug", "gui"}},
		{"force cli", []string{"cloudfm", "--cli"}, true, []string{"cloudfm"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := routeArgs(tt.args, tt.hasDisplay); !slices.Equal(got, tt.want) {
				t.Errorf("routeArgs(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}
