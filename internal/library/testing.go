package library

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sha1n/mcp-lexdesk-server/internal/config"
	"github.com/sha1n/mcp-lexdesk-server/internal/domain"
)

// TestSettings returns library settings rooted in a fresh temp directory.
// This is exported for use in integration tests.
func TestSettings(t testing.TB) *config.LibrarySettings {
	t.Helper()
	return &config.LibrarySettings{
		Enabled:     true,
		DataDir:     t.TempDir(),
		SeedSamples: true,
		MaxResults:  20,
		SourceLimit: 5,
		LockTimeout: 5 * time.Second,
	}
}

// WriteSnapshot persists docs, filed in the sample folders, as an already seeded library under dataDir.
func WriteSnapshot(t testing.TB, dataDir string, docs []domain.Document, seededAt time.Time) {
	t.Helper()
	store := NewStore(filepath.Join(dataDir, SnapshotFilename))
	store.Seed(docs, seededAt)
	for _, f := range SampleFolders() {
		store.PutFolder(f, seededAt)
	}
	if err := store.Save(); err != nil {
		t.Fatalf("Failed to write library snapshot: %v", err)
	}
}

// NewTestService returns an initialized service holding docs, with its clock fixed at now.
// It is closed when the test ends.
func NewTestService(t testing.TB, docs []domain.Document, now time.Time) *Service {
	t.Helper()

	settings := TestSettings(t)
	WriteSnapshot(t, settings.DataDir, docs, now)

	svc, err := NewService(settings)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	svc.SetClock(func() time.Time { return now })

	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() {
		if err := svc.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return svc
}
