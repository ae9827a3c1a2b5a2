package library

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sha1n/mcp-lexdesk-server/internal/domain"
)

var testNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

func TestLoadStore_NewFile(t *testing.T) {
	s, err := LoadStore(filepath.Join(t.TempDir(), SnapshotFilename))
	if err != nil {
		t.Fatalf("LoadStore failed: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty store, got %d documents", s.Len())
	}
	if s.IsSeeded() {
		t.Error("New store should not be seeded")
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", SnapshotFilename)

	s := NewStore(path)
	s.Seed(SampleDocuments(), testNow)
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file should not remain after save")
	}

	loaded, err := LoadStore(path)
	if err != nil {
		t.Fatalf("LoadStore failed: %v", err)
	}
	if loaded.Len() != 6 {
		t.Errorf("Expected 6 documents, got %d", loaded.Len())
	}
	if !loaded.IsSeeded() {
		t.Error("Loaded store should be seeded")
	}
	if !loaded.UpdatedAt().Equal(testNow) {
		t.Errorf("UpdatedAt = %v, want %v", loaded.UpdatedAt(), testNow)
	}

	doc, ok := loaded.Get("doc_1")
	if !ok {
		t.Fatal("Expected doc_1 after reload")
	}
	if doc.Content == "" {
		t.Error("Expected doc_1 content to survive the round trip")
	}
	if !doc.UploadedAt.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("Unexpected upload time %v", doc.UploadedAt)
	}
}

func TestStore_SnapshotFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotFilename)
	s := NewStore(path)
	s.Seed(SampleDocuments()[:1], testNow)
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Snapshot is not valid JSON: %v", err)
	}
	if snap.Version != SnapshotVersion {
		t.Errorf("Version = %d, want %d", snap.Version, SnapshotVersion)
	}
	if len(snap.Documents) != 1 || snap.Documents[0].ID != "doc_1" {
		t.Errorf("Unexpected documents in snapshot: %+v", snap.Documents)
	}
}

func TestStore_All_SortedNewestFirst(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), SnapshotFilename))
	s.Seed(SampleDocuments(), testNow)

	same := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	s.Put(domain.Document{ID: "doc_0", Name: "Twin.pdf", UploadedAt: same}, testNow)

	want := []string{"doc_0", "doc_1", "doc_2", "doc_3", "doc_4", "doc_5", "doc_6"}
	all := s.All()
	if len(all) != len(want) {
		t.Fatalf("Expected %d documents, got %d", len(want), len(all))
	}
	for i, doc := range all {
		if doc.ID != want[i] {
			t.Errorf("All()[%d] = %s, want %s", i, doc.ID, want[i])
		}
	}
}

func TestStore_PutGetDelete(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), SnapshotFilename))

	doc := domain.Document{ID: "doc_x", Name: "X.pdf"}
	s.Put(doc, testNow)

	if _, ok := s.Get("doc_x"); !ok {
		t.Fatal("Expected document after Put")
	}
	if !s.Delete("doc_x", testNow) {
		t.Error("Expected Delete to report existing document")
	}
	if s.Delete("doc_x", testNow) {
		t.Error("Expected second Delete to report missing document")
	}
	if _, ok := s.Get("doc_x"); ok {
		t.Error("Expected document to be gone")
	}
}

func TestStore_SeededFlagSurvivesEmptyLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotFilename)
	s := NewStore(path)
	s.Seed(nil, testNow)
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadStore(path)
	if err != nil {
		t.Fatalf("LoadStore failed: %v", err)
	}
	if !loaded.IsSeeded() {
		t.Error("An empty seeded library must stay seeded")
	}
}

func TestLoadStore_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotFilename)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadStore(path); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestLoadStore_FutureVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotFilename)
	if err := os.WriteFile(path, []byte(`{"version": 99, "documents": []}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadStore(path); err == nil {
		t.Error("Expected error for unsupported version")
	}
}

func TestStore_Reload_PicksUpExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotFilename)

	a := NewStore(path)
	a.Seed(SampleDocuments(), testNow)
	if err := a.Save(); err != nil {
		t.Fatal(err)
	}

	b, err := LoadStore(path)
	if err != nil {
		t.Fatal(err)
	}
	b.Put(domain.Document{ID: "doc_new", Name: "New.pdf"}, testNow)
	if err := b.Save(); err != nil {
		t.Fatal(err)
	}

	if err := a.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if _, ok := a.Get("doc_new"); !ok {
		t.Error("Expected reload to pick up the document written by the other store")
	}
}

func TestStore_Folders_CountDocuments(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), SnapshotFilename))
	s.Seed(SampleDocuments(), testNow)
	for _, f := range SampleFolders() {
		s.PutFolder(f, testNow)
	}

	want := map[string]int{
		"folder_contracts":  2,
		"folder_templates":  1,
		"folder_ma":         1,
		"folder_employment": 1,
		"folder_ndas":       1,
	}
	folders := s.Folders()
	if len(folders) != len(want) {
		t.Fatalf("Expected %d folders, got %d", len(want), len(folders))
	}
	for _, f := range folders {
		if f.DocumentCount != want[f.ID] {
			t.Errorf("%s: DocumentCount = %d, want %d", f.ID, f.DocumentCount, want[f.ID])
		}
	}
	if folders[0].ID != "folder_contracts" || folders[4].ID != "folder_templates" {
		t.Errorf("Expected folders ordered by creation then ID, got %s..%s", folders[0].ID, folders[4].ID)
	}

	f, ok := s.Folder("folder_contracts")
	if !ok || f.DocumentCount != 2 {
		t.Errorf("Folder() = %+v, %v", f, ok)
	}
}

func TestStore_DeleteFolder_MovesDocumentsAndSubfolders(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), SnapshotFilename))
	s.Seed(SampleDocuments(), testNow)
	s.PutFolder(domain.Folder{ID: "folder_legal", Name: "Legal", CreatedAt: testNow}, testNow)
	s.PutFolder(domain.Folder{ID: "folder_contracts", Name: "Contracts", ParentID: "folder_legal", CreatedAt: testNow}, testNow)
	s.PutFolder(domain.Folder{ID: "folder_leases", Name: "Leases", ParentID: "folder_contracts", CreatedAt: testNow}, testNow)

	moved, ok := s.DeleteFolder("folder_contracts", testNow)
	if !ok {
		t.Fatal("Expected folder to exist")
	}
	if moved != 2 {
		t.Errorf("Expected 2 documents moved, got %d", moved)
	}

	for _, id := range []string{"doc_1", "doc_6"} {
		doc, _ := s.Get(id)
		if doc.FolderID != "" {
			t.Errorf("%s should be at the root, got folder %q", id, doc.FolderID)
		}
	}
	leases, _ := s.Folder("folder_leases")
	if leases.ParentID != "folder_legal" {
		t.Errorf("Expected subfolder to move up to folder_legal, got %q", leases.ParentID)
	}

	if _, ok := s.DeleteFolder("folder_contracts", testNow); ok {
		t.Error("Second delete should report a missing folder")
	}
}

func TestStore_Messages(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotFilename)
	s := NewStore(path)
	s.ResetMessages(InitialMessages(testNow), testNow)
	s.AppendMessages([]domain.ChatMessage{
		{ID: "msg_q", Role: domain.RoleUser, Content: "What is the notice period?", Timestamp: testNow},
	}, testNow)
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadStore(path)
	if err != nil {
		t.Fatal(err)
	}
	msgs := loaded.Messages()
	if len(msgs) != 2 || msgs[0].ID != "msg_1" || msgs[1].ID != "msg_q" {
		t.Fatalf("Unexpected messages after reload: %+v", msgs)
	}

	msgs[0].Content = "changed"
	if loaded.Messages()[0].Content != WelcomeMessage {
		t.Error("Messages must return a copy")
	}

	if dropped := loaded.ResetMessages(InitialMessages(testNow), testNow); dropped != 2 {
		t.Errorf("Expected 2 dropped messages, got %d", dropped)
	}
	if len(loaded.Messages()) != 1 {
		t.Errorf("Expected only the welcome message, got %d", len(loaded.Messages()))
	}
}

func TestStore_Changed(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotFilename)

	a := NewStore(path)
	if a.Changed() {
		t.Error("A missing snapshot is not a change")
	}
	a.Seed(SampleDocuments(), testNow)
	if err := a.Save(); err != nil {
		t.Fatal(err)
	}
	if a.Changed() {
		t.Error("A store's own save is not a change")
	}

	b, err := LoadStore(path)
	if err != nil {
		t.Fatal(err)
	}
	b.Put(domain.Document{ID: "doc_new", Name: "New.pdf"}, testNow)
	if err := b.Save(); err != nil {
		t.Fatal(err)
	}

	if !a.Changed() {
		t.Error("Expected a save by another store to be detected")
	}
	if err := a.Reload(); err != nil {
		t.Fatal(err)
	}
	if a.Changed() {
		t.Error("Expected no change after reload")
	}
}

func TestLoadStore_VersionOneSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), SnapshotFilename)
	v1 := `{"version": 1, "seeded_at": "2024-01-20T12:00:00Z", "documents": [{"id": "doc_1", "name": "A.pdf"}]}`
	if err := os.WriteFile(path, []byte(v1), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadStore(path)
	if err != nil {
		t.Fatalf("LoadStore failed: %v", err)
	}
	if s.Len() != 1 || len(s.Folders()) != 0 || len(s.Messages()) != 0 {
		t.Errorf("Unexpected content from a version 1 snapshot")
	}
}
