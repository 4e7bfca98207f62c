package main

import (
	"testing"

	"github.com/eteu-technologies/s3-deployer/internal/config"
)

func TestBuildPathOf(t *testing.T) {
	cfg := config.Default()
	if got := buildPathOf(&cfg, "dist"); got != "dist" {
		t.Errorf("expected argument to be used, got %q", got)
	}

	cfg.Options.BuildPath = "public"
	if got := buildPathOf(&cfg, "dist"); got != "public" {
		t.Errorf("expected configured build path, got %q", got)
	}
}
