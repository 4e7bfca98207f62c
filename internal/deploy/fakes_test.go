package deploy

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/eteu-technologies/s3-deployer/internal/config"
)

type storedObject struct {
	body        string
	contentType string
	publicRead  bool
}

type invalidation struct {
	distributionID  string
	callerReference string
	paths           []string
}

type fakeStore struct {
	mu            sync.Mutex
	objects       map[string]storedObject
	invalidations []invalidation

	failKey         string
	invalidationErr error
	delay           time.Duration

	inFlight    int
	maxInFlight int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]storedObject)}
}

func (s *fakeStore) Upload(ctx context.Context, obj Object) error {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	if obj.Key == s.failKey {
		return errors.New("access denied")
	}

	body, err := ioutil.ReadAll(obj.Body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.Key] = storedObject{
		body:        string(body),
		contentType: obj.ContentType,
		publicRead:  obj.PublicRead,
	}
	return nil
}

func (s *fakeStore) CreateInvalidation(ctx context.Context, distributionID, callerReference string, paths []string) error {
	if s.invalidationErr != nil {
		return s.invalidationErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidations = append(s.invalidations, invalidation{distributionID, callerReference, paths})
	return nil
}

func (s *fakeStore) keys() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make(map[string]bool, len(s.objects))
	for k := range s.objects {
		keys[k] = true
	}
	return keys
}

type sentPayload struct {
	webhook string
	payload config.NotificationPayload
}

type fakeNotifier struct {
	sent    []sentPayload
	failFor string
}

func (n *fakeNotifier) Send(ctx context.Context, webhook string, payload config.NotificationPayload) error {
	n.sent = append(n.sent, sentPayload{webhook, payload})
	if payload.Channel == n.failFor {
		return errors.New("webhook returned 404")
	}
	return nil
}

type fixedPrompter struct {
	environment string
	message     string
}

func (p fixedPrompter) ChooseEnvironment(ctx context.Context, names []string) (string, error) {
	return p.environment, nil
}

func (p fixedPrompter) DeployMessage(ctx context.Context) (string, error) {
	return p.message, nil
}

// writeTree creates files (relative path to content) under a fresh directory.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := ioutil.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return dir
}
