package library

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/sha1n/mcp-lexdesk-server/internal/domain"
)

const (
	// SnapshotVersion is the current schema version of the library snapshot.
	// Version 2 added folders and the chat history; version 1 snapshots still load.
	SnapshotVersion = 2

	// SnapshotFilename is the snapshot file name inside the data directory
	SnapshotFilename = "library.json"
)

// Snapshot is the on-disk form of the library.
type Snapshot struct {
	Version   int                  `json:"version"`
	SeededAt  time.Time            `json:"seeded_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	Documents []domain.Document    `json:"documents"`
	Folders   []domain.Folder      `json:"folders,omitempty"`
	Messages  []domain.ChatMessage `json:"messages,omitempty"`
}

// Store holds the library documents, folders and chat history in memory
// and persists them as a JSON snapshot.
type Store struct {
	path      string
	docs      map[string]domain.Document
	folders   map[string]domain.Folder
	messages  []domain.ChatMessage
	seededAt  time.Time
	updatedAt time.Time

	// loaded is the snapshot file the in-memory state was last read from or written to.
	loaded os.FileInfo
	mu     sync.RWMutex
}

// NewStore creates an empty store persisted at path.
func NewStore(path string) *Store {
	return &Store{
		path:    path,
		docs:    make(map[string]domain.Document),
		folders: make(map[string]domain.Folder),
	}
}

// LoadStore reads the snapshot at path, or returns an empty store if it doesn't exist.
func LoadStore(path string) (*Store, error) {
	s := NewStore(path)
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory state with the snapshot on disk.
// A missing snapshot leaves the store unchanged.
func (s *Store) Reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read library snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat library snapshot: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read library snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse library snapshot: %w", err)
	}
	if snap.Version > SnapshotVersion {
		return fmt.Errorf("unsupported library snapshot version %d", snap.Version)
	}

	docs := make(map[string]domain.Document, len(snap.Documents))
	for _, doc := range snap.Documents {
		docs[doc.ID] = doc
	}

	folders := make(map[string]domain.Folder, len(snap.Folders))
	for _, f := range snap.Folders {
		folders[f.ID] = f
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = docs
	s.folders = folders
	s.messages = snap.Messages
	s.seededAt = snap.SeededAt
	s.updatedAt = snap.UpdatedAt
	s.loaded = info
	return nil
}

// Save writes the snapshot to disk atomically (write to temp file, then rename).
func (s *Store) Save() error {
	s.mu.RLock()
	snap := Snapshot{
		Version:   SnapshotVersion,
		SeededAt:  s.seededAt,
		UpdatedAt: s.updatedAt,
		Documents: s.sortedLocked(),
		Folders:   s.foldersLocked(),
		Messages:  slices.Clone(s.messages),
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal library snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write library snapshot temp file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename library snapshot: %w", err)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("failed to stat library snapshot: %w", err)
	}
	s.mu.Lock()
	s.loaded = info
	s.mu.Unlock()
	return nil
}

// Changed reports whether the snapshot on disk was replaced since the store
// last read or wrote it. Every save renames a new file into place.
func (s *Store) Changed() bool {
	cur, err := os.Stat(s.path)
	if err != nil {
		return false
	}

	s.mu.RLock()
	prev := s.loaded
	s.mu.RUnlock()
	if prev == nil {
		return true
	}
	return !os.SameFile(prev, cur) || !prev.ModTime().Equal(cur.ModTime()) || prev.Size() != cur.Size()
}

// Path returns the snapshot path.
func (s *Store) Path() string {
	return s.path
}

// IsSeeded reports whether the library has ever been seeded.
// A seeded library is never reseeded, even after all documents are deleted.
func (s *Store) IsSeeded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.seededAt.IsZero()
}

// Seed stores docs and marks the library as seeded at the given time.
func (s *Store) Seed(docs []domain.Document, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.docs[doc.ID] = doc
	}
	s.seededAt = at
	s.updatedAt = at
}

// Put inserts or replaces a document.
func (s *Store) Put(doc domain.Document, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	s.updatedAt = at
}

// Update replaces an existing document and reports whether it existed.
func (s *Store) Update(doc domain.Document, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; !ok {
		return false
	}
	s.docs[doc.ID] = doc
	s.updatedAt = at
	return true
}

// Get returns the document with the given id.
func (s *Store) Get(id string) (domain.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}

// Delete removes a document and reports whether it existed.
func (s *Store) Delete(id string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return false
	}
	delete(s.docs, id)
	s.updatedAt = at
	return true
}

// All returns every document, newest upload first, then by ID.
func (s *Store) All() []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

// Len returns the number of documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// UpdatedAt returns the time of the last change.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

func (s *Store) sortedLocked() []domain.Document {
	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	slices.SortFunc(docs, func(a, b domain.Document) int {
		if c := b.UploadedAt.Compare(a.UploadedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return docs
}

// PutFolder inserts or replaces a folder.
func (s *Store) PutFolder(f domain.Folder, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders[f.ID] = f
	s.updatedAt = at
}

// Folder returns the folder with the given id, with its document count.
func (s *Store) Folder(id string) (domain.Folder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.folders[id]
	if ok {
		f.DocumentCount = s.countLocked(id)
	}
	return f, ok
}

// Folders returns every folder with its document count, oldest first, then by ID.
func (s *Store) Folders() []domain.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.foldersLocked()
}

// DeleteFolder removes a folder. Its documents move to the library root and its
// subfolders move up to its parent. It returns the number of documents moved and
// whether the folder existed.
func (s *Store) DeleteFolder(id string, at time.Time) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.folders[id]
	if !ok {
		return 0, false
	}
	delete(s.folders, id)

	for childID, child := range s.folders {
		if child.ParentID == id {
			child.ParentID = f.ParentID
			s.folders[childID] = child
		}
	}

	moved := 0
	for docID, doc := range s.docs {
		if doc.FolderID == id {
			doc.FolderID = ""
			s.docs[docID] = doc
			moved++
		}
	}
	s.updatedAt = at
	return moved, true
}

// AppendMessages adds messages to the end of the chat history.
func (s *Store) AppendMessages(msgs []domain.ChatMessage, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
	s.updatedAt = at
}

// Messages returns the chat history in the order it was recorded.
func (s *Store) Messages() []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

// ResetMessages replaces the chat history and returns the number of messages dropped.
func (s *Store) ResetMessages(msgs []domain.ChatMessage, at time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := len(s.messages)
	s.messages = slices.Clone(msgs)
	s.updatedAt = at
	return dropped
}

func (s *Store) foldersLocked() []domain.Folder {
	counts := make(map[string]int, len(s.folders))
	for _, doc := range s.docs {
		if doc.FolderID != "" {
			counts[doc.FolderID]++
		}
	}

	folders := make([]domain.Folder, 0, len(s.folders))
	for _, f := range s.folders {
		f.DocumentCount = counts[f.ID]
		folders = append(folders, f)
	}
	slices.SortFunc(folders, func(a, b domain.Folder) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return folders
}

func (s *Store) countLocked(folderID string) int {
	n := 0
	for _, doc := range s.docs {
		if doc.FolderID == folderID {
			n++
		}
	}
	return n
}
