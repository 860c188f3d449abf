package cli

import (
	"context"
	"testing"

	"lms-challenge-service/internal/config"
)

func TestRootCommandWiring(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CONFIG_PATH", "testdata/custom.yaml")

	cmd := newRootCmd()
	if cmd.Use != "lms-challenge-service" {
		t.Fatalf("unexpected use %q", cmd.Use)
	}

	for _, name := range []string{"start", "migrate"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Fatalf("expected %s subcommand, got %v (%v)", name, sub, err)
		}
	}

	if got := cmd.PersistentFlags().Lookup("port").DefValue; got != "9090" {
		t.Fatalf("expected port default from PORT, got %q", got)
	}
	if got := cmd.PersistentFlags().Lookup("config").DefValue; got != "testdata/custom.yaml" {
		t.Fatalf("expected config default from CONFIG_PATH, got %q", got)
	}
}

func TestStartJanitorRejectsBadSchedule(t *testing.T) {
	var cfg config.Config
	cfg.Challenge.SweepSchedule = "every now and then"
	if _, err := startJanitor(context.Background(), nil, cfg); err == nil {
		t.Fatalf("expected invalid sweep schedule to fail")
	}

	cfg.Challenge.SweepSchedule = ""
	janitor, err := startJanitor(context.Background(), nil, cfg)
	if err != nil {
		t.Fatalf("default schedule: %v", err)
	}
	janitor.Stop()
}
