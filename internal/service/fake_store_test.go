package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/perfpulse/pulselink/internal/auth"
)

// fakeStore is an in-memory document store. Documents round-trip through
// JSON exactly as they do in the real store, so struct tags and zero-value
// behavior match production.
type fakeStore struct {
	docs map[string][]byte
	// set to a non-nil error to simulate a storage failure
	getErr    error
	putErr    error
	existsErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string][]byte)}
}

func (f *fakeStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	if f.getErr != nil {
		return false, f.getErr
	}
	body, ok := f.docs[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (f *fakeStore) Put(ctx context.Context, key string, doc any) error {
	if f.putErr != nil {
		return f.putErr
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	f.docs[key] = body
	return nil
}

func (f *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.docs[key]
	return ok, nil
}

func (f *fakeStore) Close() error { return nil }

// put seeds a document directly, failing the test on marshal errors.
func (f *fakeStore) put(t *testing.T, key string, doc any) {
	t.Helper()
	if err := f.Put(context.Background(), key, doc); err != nil {
		t.Fatalf("seeding %s: %v", key, err)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestIdentityService wires an IdentityService over the fake store.
// Cost 4 is bcrypt minimum, which keeps the hashing in tests fast.
func newTestIdentityService(docs *fakeStore) *IdentityService {
	return NewIdentityService(docs, auth.NewPINServiceForTest(4), nil, testLogger())
}

func newTestRelationshipService(docs *fakeStore) *RelationshipService {
	return NewRelationshipService(docs, nil, testLogger())
}

func newTestSnapshotService(docs *fakeStore) *SnapshotService {
	return NewSnapshotService(docs, nil, testLogger())
}
