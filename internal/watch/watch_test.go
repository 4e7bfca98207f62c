package watch

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"
)

func TestFileDebouncesChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "index.html")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fired := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- File(ctx, target, 200*time.Millisecond, func(context.Context) {
			fired <- struct{}{}
		})
	}()

	// Give the watcher time to register.
	time.Sleep(200 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := ioutil.WriteFile(target, []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err := ioutil.WriteFile(filepath.Join(dir, "other.js"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("callback never fired")
	}

	select {
	case <-fired:
		t.Error("burst of writes fired more than once")
	case <-time.After(600 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("File returned %v", err)
	}
}
