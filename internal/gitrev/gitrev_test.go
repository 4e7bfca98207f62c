package gitrev

import (
	"context"
	"os/exec"
	"testing"
)

func TestShortHash(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"-c", "user.name=deployer", "-c", "user.email=deployer@example.com", "commit", "-q", "--allow-empty", "-m", "init"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}

	hash, err := ShortHash(dir)(context.Background())
	if err != nil {
		t.Fatalf("ShortHash: %v", err)
	}
	if len(hash) < 7 {
		t.Errorf("unexpected short hash %q", hash)
	}
}

func TestShortHashOutsideRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	if _, err := ShortHash(t.TempDir())(context.Background()); err == nil {
		t.Error("expected error outside of a repository")
	}
}
