package commands

import (
	"testing"
	"time"

	"github.com/jmylchreest/lnp-scraper/internal/config"
	"github.com/jmylchreest/lnp-scraper/internal/models"
)

func TestSolvePartitions(t *testing.T) {
	tests := []struct {
		in      string
		want    []models.Partition
		wantErr bool
	}{
		{"all", []models.Partition{models.Male, models.Female}, false},
		{"ALL", []models.Partition{models.Male, models.Female}, false},
		{"Male", []models.Partition{models.Male}, false},
		{"Female", []models.Partition{models.Female}, false},
		{"female", nil, true},
		{"", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := solvePartitions(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("solvePartitions(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("solvePartitions(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("solvePartitions(%q)[%d] = %v, want %v", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRequestBudget(t *testing.T) {
	cfg := &config.Config{
		Headless:             true,
		CaptureWait:          12 * time.Second,
		CaptureRetries:       3,
		DriverRestartRetries: 2,
		ManualSolveWait:      time.Minute,
		UpstreamTimeout:      25 * time.Second,
	}

	// 3 generations x 3 attempts x (12s + 30s) + 4 x 25s
	if got, want := requestBudget(cfg), 9*42*time.Second+100*time.Second; got != want {
		t.Errorf("requestBudget() = %v, want %v", got, want)
	}

	cfg.Headless = false
	cfg.Interactive = true
	if got, want := requestBudget(cfg), 9*102*time.Second+100*time.Second; got != want {
		t.Errorf("interactive requestBudget() = %v, want %v", got, want)
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"serve", "solve", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, cmd, err)
		}
	}
}
