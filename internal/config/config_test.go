package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.RoomTTL != 30*time.Minute {
		t.Errorf("expected 30m room TTL, got %s", cfg.RoomTTL)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("expected 2s poll interval, got %s", cfg.PollInterval)
	}
	if cfg.AnswerTimeout != 5*time.Minute {
		t.Errorf("expected 5m answer timeout, got %s", cfg.AnswerTimeout)
	}
	if cfg.CandidateGrace != 2*time.Second {
		t.Errorf("expected 2s candidate grace, got %s", cfg.CandidateGrace)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected :8080 listen addr, got %s", cfg.ListenAddr)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DROPWIRE_POLL_INTERVAL", "500ms")
	t.Setenv("DROPWIRE_STUN_SERVERS", "stun:a:1,stun:b:2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("expected 500ms poll interval, got %s", cfg.PollInterval)
	}
	if len(cfg.STUNServers) != 2 || cfg.STUNServers[0] != "stun:a:1" {
		t.Errorf("unexpected STUN servers: %v", cfg.STUNServers)
	}
}
