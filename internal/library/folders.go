package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sha1n/mcp-lexdesk-server/internal/domain"
)

// FolderInput holds the caller-supplied fields of a folder being created or changed.
// An empty ID creates a new folder.
type FolderInput struct {
	ID          string
	Name        string
	ParentID    string
	Color       string
	Description string
}

// Folders returns every folder with its document count.
func (s *Service) Folders() ([]domain.Folder, error) {
	if !s.IsReady() {
		return nil, ErrNotReady
	}
	s.refresh()
	return s.store.Folders(), nil
}

// Folder returns a single folder with its document count.
func (s *Service) Folder(id string) (domain.Folder, error) {
	if !s.IsReady() {
		return domain.Folder{}, ErrNotReady
	}
	s.refresh()
	f, ok := s.store.Folder(strings.TrimSpace(id))
	if !ok {
		return domain.Folder{}, fmt.Errorf("%w: %s", ErrFolderNotFound, id)
	}
	return f, nil
}

// SaveFolder creates a folder, or replaces the fields of an existing one.
// It reports whether the folder was created.
func (s *Service) SaveFolder(ctx context.Context, in FolderInput) (domain.Folder, bool, error) {
	if !s.IsReady() {
		return domain.Folder{}, false, ErrNotReady
	}

	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.ParentID = normalizeFolderRef(in.ParentID)
	if in.Name == "" {
		return domain.Folder{}, false, fmt.Errorf("%w: name is required", ErrInvalidFolder)
	}
	if in.ID == RootFolderID {
		return domain.Folder{}, false, fmt.Errorf("%w: %q is reserved", ErrInvalidFolder, RootFolderID)
	}
	if in.ID == "" {
		in.ID = NewFolderID()
	}

	var saved domain.Folder
	created := false
	err := s.mutate(ctx, func(now time.Time) (bool, error) {
		if err := s.checkParent(in.ID, in.ParentID); err != nil {
			return false, err
		}

		f, exists := s.store.Folder(in.ID)
		if !exists {
			f = domain.Folder{ID: in.ID, CreatedAt: now}
			created = true
		}
		f.Name = in.Name
		f.ParentID = in.ParentID
		f.Color = strings.TrimSpace(in.Color)
		f.Description = strings.TrimSpace(in.Description)

		s.store.PutFolder(f, now)
		saved, _ = s.store.Folder(f.ID)
		return true, nil
	})
	if errors.Is(err, ErrInvalidFolder) {
		return domain.Folder{}, false, err
	}
	if err != nil {
		return domain.Folder{}, false, fmt.Errorf("failed to save folder: %w", err)
	}

	slog.Info("Folder saved", "id", saved.ID, "name", saved.Name, "created", created)
	return saved, created, nil
}

// DeleteFolder removes a folder. Its documents move to the library root and its
// subfolders move up one level. It returns the number of documents moved.
func (s *Service) DeleteFolder(ctx context.Context, id string) (int, error) {
	if !s.IsReady() {
		return 0, ErrNotReady
	}
	id = strings.TrimSpace(id)

	moved, found := 0, false
	err := s.mutate(ctx, func(now time.Time) (bool, error) {
		moved, found = s.store.DeleteFolder(id, now)
		return found, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete folder: %w", err)
	}
	if !found {
		return 0, fmt.Errorf("%w: %s", ErrFolderNotFound, id)
	}

	slog.Info("Folder deleted", "id", id, "documents_moved", moved)
	return moved, nil
}

// checkFolder verifies that a document folder reference resolves.
// The caller holds writeMu and the library lock.
func (s *Service) checkFolder(id string) error {
	if id == "" {
		return nil
	}
	if _, ok := s.store.Folder(id); !ok {
		return fmt.Errorf("%w: unknown folder %q", ErrInvalidDocument, id)
	}
	return nil
}

// checkParent verifies that parentID exists and that making it the parent of id
// does not create a cycle.
func (s *Service) checkParent(id, parentID string) error {
	if parentID == "" {
		return nil
	}
	if parentID == id {
		return fmt.Errorf("%w: a folder cannot be its own parent", ErrInvalidFolder)
	}

	seen := map[string]bool{}
	for cur := parentID; cur != ""; {
		if cur == id {
			return fmt.Errorf("%w: moving %s under %s would create a cycle", ErrInvalidFolder, id, parentID)
		}
		if seen[cur] {
			break
		}
		seen[cur] = true

		f, ok := s.store.Folder(cur)
		if !ok {
			if cur == parentID {
				return fmt.Errorf("%w: unknown parent %q", ErrInvalidFolder, parentID)
			}
			break
		}
		cur = f.ParentID
	}
	return nil
}
