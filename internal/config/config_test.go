package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("firm-1")
	if cfg.Firm.ID != "firm-1" {
		t.Fatalf("expected firm id, got %q", cfg.Firm.ID)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if got := cfg.Decision34Window(); got != 3*24*time.Hour {
		t.Fatalf("unexpected 34 window %s", got)
	}
	if got := cfg.Decision46Window(); got != 6*24*time.Hour {
		t.Fatalf("unexpected 46 window %s", got)
	}
	if got := cfg.MonitorInterval(); got != time.Hour {
		t.Fatalf("unexpected monitor interval %s", got)
	}
}

func TestValidateRejectsBadDeadlines(t *testing.T) {
	cfg := Default("firm-1")
	cfg.Deadlines.Decision34Days = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for zero window")
	}
}

func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte(`firm:
  id: lex
deadlines:
  decision_34_days: 5
  decision_46_days: 10
monitor:
  interval: 30m
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Deadlines.Decision34Days != 5 {
		t.Fatalf("unexpected 34 days %d", cfg.Deadlines.Decision34Days)
	}
	if cfg.MonitorInterval() != 30*time.Minute {
		t.Fatalf("unexpected interval %s", cfg.MonitorInterval())
	}

	if _, err := FromYAML([]byte(`monitor: {interval: nope}`)); err == nil {
		t.Fatalf("expected error for bad interval")
	}
}
