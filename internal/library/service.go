package library

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sha1n/mcp-lexdesk-server/internal/config"
	"github.com/sha1n/mcp-lexdesk-server/internal/domain"
	"github.com/sha1n/mcp-lexdesk-server/internal/relevance"
)

const (
	// LockFilename is the name of the library lock file
	LockFilename = "library.lock"

	// ExcerptLength is the number of characters quoted from a source document
	ExcerptLength = 200

	// HoursSavedPerDocument is the review time the library estimates it saves per document
	HoursSavedPerDocument = 2.5

	// TopTypesLimit is the number of document types reported by Analytics
	TopTypesLimit = 5

	// HighRiskThreshold is the risk count above which a document is flagged
	HighRiskThreshold = 2
)

var (
	// ErrNotReady indicates the library has not finished initializing
	ErrNotReady = errors.New("library is not ready")

	// ErrNotFound indicates the requested document does not exist
	ErrNotFound = errors.New("document not found")

	// ErrInvalidDocument indicates a document failed validation
	ErrInvalidDocument = errors.New("invalid document")

	// ErrFolderNotFound indicates the requested folder does not exist
	ErrFolderNotFound = errors.New("folder not found")

	// ErrInvalidFolder indicates a folder failed validation
	ErrInvalidFolder = errors.New("invalid folder")

	// ErrInvalidMessage indicates a chat message failed validation
	ErrInvalidMessage = errors.New("invalid message")
)

// Source is a document cited in support of an answer.
type Source = domain.Source

// NewDocument holds the caller-supplied fields of a document being added.
type NewDocument struct {
	Name     string
	Type     string
	Status   string
	Summary  string
	Content  string
	Tags     []string
	FolderID string
	Priority string
	Risks    int
}

// TypeCount is the number of documents of one type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// RiskDocument is a document flagged for its risk count.
type RiskDocument struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Risks int    `json:"risks"`
}

// Analytics summarizes the library.
type Analytics struct {
	TotalDocuments     int            `json:"total_documents"`
	TotalQueries       int            `json:"total_queries"`
	RiskAlerts         int            `json:"risk_alerts"`
	DocumentsThisMonth int            `json:"documents_this_month"`
	QueriesThisMonth   int            `json:"queries_this_month"`
	HoursSaved         int            `json:"hours_saved"`
	TopDocumentTypes   []TypeCount    `json:"top_document_types"`
	ByStatus           map[string]int `json:"by_status"`
	HighRiskDocuments  []RiskDocument `json:"high_risk_documents"`
}

// Service owns the document library: the persisted store, its full-text index
// and the lock shared with other processes using the same data directory.
type Service struct {
	settings *config.LibrarySettings
	store    *Store
	index    *Index
	lock     *FileLock
	now      func() time.Time
	ready    bool
	mu       sync.RWMutex
	writeMu  sync.Mutex // serializes in-process writers sharing lock
}

// NewService creates a library service. Call Initialize before use.
func NewService(settings *config.LibrarySettings) (*Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}

	if err := os.MkdirAll(settings.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Service{
		settings: settings,
		store:    NewStore(filepath.Join(settings.DataDir, SnapshotFilename)),
		lock:     NewFileLock(filepath.Join(settings.DataDir, LockFilename)),
		now:      time.Now,
	}, nil
}

// SetClock replaces the service clock. Relevance recency and analytics read time only through it.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Service) clock() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

// Initialize loads the library with leader/follower seeding and builds the index.
// The process that takes the lock seeds an empty library; others wait for it.
func (s *Service) Initialize(ctx context.Context) error {
	acquired, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if acquired {
		slog.Info("Acquired library lock, loading library")
		seedErr := s.seedIfNeeded()
		if err := s.lock.Unlock(); err != nil {
			slog.Error("Failed to unlock", "error", err)
		}
		if seedErr != nil {
			return seedErr
		}
	} else {
		slog.Info("Another instance is seeding the library, waiting for completion")
		if err := s.lock.LockWithContext(ctx, s.settings.LockTimeout); err != nil {
			slog.Warn("Timeout waiting for library lock, using existing snapshot", "error", err)
		} else if err := s.lock.Unlock(); err != nil {
			slog.Error("Failed to unlock", "error", err)
		}
		if err := s.store.Reload(); err != nil {
			return fmt.Errorf("failed to load library: %w", err)
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.rebuildIndex(); err != nil {
		return err
	}

	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	slog.Info("Library ready", "documents", s.store.Len(), "folders", len(s.store.Folders()))
	return nil
}

// seedIfNeeded loads the snapshot and seeds it on first run. The caller holds the lock.
func (s *Service) seedIfNeeded() error {
	if err := s.store.Reload(); err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}
	if s.store.IsSeeded() {
		slog.Info("Library loaded", "documents", s.store.Len())
		return nil
	}

	now := s.clock()
	var seed Seed
	switch {
	case s.settings.SeedFile != "":
		loaded, err := LoadSeedFile(s.settings.SeedFile, now)
		if err != nil {
			return err
		}
		seed = loaded
		slog.Info("Seeding library from file", "path", s.settings.SeedFile,
			"documents", len(seed.Documents), "folders", len(seed.Folders))
	case s.settings.SeedSamples:
		seed = Seed{Documents: SampleDocuments(), Folders: SampleFolders()}
		slog.Info("Seeding library with sample documents", "documents", len(seed.Documents))
	}

	s.store.Seed(seed.Documents, now)
	for _, f := range seed.Folders {
		s.store.PutFolder(f, now)
	}
	s.store.ResetMessages(InitialMessages(now), now)
	if err := s.store.Save(); err != nil {
		return fmt.Errorf("failed to save library: %w", err)
	}
	return nil
}

// rebuildIndex replaces the index with one built from the current store.
// The caller holds writeMu.
func (s *Service) rebuildIndex() error {
	index, err := NewIndex(s.store.All())
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	s.mu.Lock()
	old := s.index
	s.index = index
	s.mu.Unlock()
	// Searches hold mu while they use the index, so none still sees old.
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// refresh reloads the store and rebuilds the index when another process has
// replaced the snapshot since it was last read. A write in progress will
// reload anyway, so refresh does not wait for it.
func (s *Service) refresh() {
	if !s.writeMu.TryLock() {
		return
	}
	defer s.writeMu.Unlock()

	if !s.store.Changed() {
		return
	}

	slog.Debug("Library snapshot changed on disk, reloading")
	if err := s.store.Reload(); err != nil {
		slog.Warn("Failed to reload library snapshot", "error", err)
		return
	}
	if err := s.rebuildIndex(); err != nil {
		slog.Error("Failed to rebuild library index", "error", err)
	}
}

// mutate runs fn against the latest snapshot under the library lock and saves
// the result when fn reports a change. The index is rebuilt whenever the store
// moved, so it also reflects writes from other processes sharing the data directory.
func (s *Service) mutate(ctx context.Context, fn func(now time.Time) (bool, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rebuild := false
	err := s.lock.WithLock(ctx, s.settings.LockTimeout, func() error {
		rebuild = s.store.Changed()
		if err := s.store.Reload(); err != nil {
			return err
		}

		changed, err := fn(s.clock())
		if err != nil || !changed {
			return err
		}
		rebuild = true
		if err := s.store.Save(); err != nil {
			// Drop the unsaved change so memory matches the disk.
			if rerr := s.store.Reload(); rerr != nil {
				slog.Error("Failed to restore library snapshot", "error", rerr)
			}
			return err
		}
		return nil
	})

	if rebuild {
		if ierr := s.rebuildIndex(); ierr != nil {
			slog.Error("Failed to rebuild library index", "error", ierr)
			if err == nil {
				err = ierr
			}
		}
	}
	return err
}

func (s *Service) searchIndex(query, docType string, size int) (*FullTextResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return nil, ErrNotReady
	}
	return s.index.Search(query, docType, size)
}

// IsReady returns true once the library is loaded and indexed.
func (s *Service) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Settings returns the service settings.
func (s *Service) Settings() *config.LibrarySettings {
	return s.settings
}

// List returns the documents passing filter, newest first.
func (s *Service) List(filter Filter) ([]domain.Document, error) {
	if !s.IsReady() {
		return nil, ErrNotReady
	}
	s.refresh()
	return filter.Apply(s.store.All()), nil
}

// Get returns a single document.
func (s *Service) Get(id string) (domain.Document, error) {
	if !s.IsReady() {
		return domain.Document{}, ErrNotReady
	}
	s.refresh()
	doc, ok := s.store.Get(strings.TrimSpace(id))
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, nil
}

// Search ranks the filtered library against query with the relevance scorer.
// topN is capped at the configured maximum; topN <= 0 uses the maximum.
func (s *Service) Search(query string, filter Filter, topN int) ([]relevance.Result, error) {
	if !s.IsReady() {
		return nil, ErrNotReady
	}
	if topN <= 0 || topN > s.settings.MaxResults {
		topN = s.settings.MaxResults
	}
	s.refresh()
	docs := filter.Apply(s.store.All())
	return relevance.RankAndFilter(query, docs, topN, s.clock()), nil
}

// Sources returns the documents that best support an answer to question,
// each with a short excerpt.
func (s *Service) Sources(question string) ([]Source, error) {
	if !s.IsReady() {
		return nil, ErrNotReady
	}
	limit := s.settings.SourceLimit
	if limit <= 0 {
		limit = relevance.DefaultSourceLimit
	}
	s.refresh()

	results := relevance.RankAndFilter(question, s.store.All(), limit, s.clock())
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, Source{
			DocumentID: r.Document.ID,
			Name:       r.Document.Name,
			Type:       r.Document.Type,
			Relevance:  r.Score,
			Excerpt:    r.Document.Excerpt(ExcerptLength),
		})
	}
	return sources, nil
}

// FullTextMatch is a document returned by FullText.
type FullTextMatch struct {
	Document  domain.Document
	Score     float64
	Fragments []string
}

// FullText runs a tokenized full-text search over the library index.
// It returns the matches and the total number of hits.
func (s *Service) FullText(query, docType string, size int) ([]FullTextMatch, uint64, error) {
	if !s.IsReady() {
		return nil, 0, ErrNotReady
	}
	if docType != "" {
		t := domain.NormalizeType(docType)
		if t == "" {
			return nil, 0, fmt.Errorf("unknown document type %q", docType)
		}
		docType = t
	}
	if size <= 0 || size > s.settings.MaxResults {
		size = s.settings.MaxResults
	}

	s.refresh()
	res, err := s.searchIndex(query, docType, size)
	if err != nil {
		return nil, 0, err
	}

	matches := make([]FullTextMatch, 0, len(res.Hits))
	for _, hit := range res.Hits {
		doc, ok := s.store.Get(hit.ID)
		if !ok {
			continue
		}
		matches = append(matches, FullTextMatch{Document: doc, Score: hit.Score, Fragments: hit.Fragments})
	}
	return matches, res.Total, nil
}

// Add validates and stores a new document.
func (s *Service) Add(ctx context.Context, nd NewDocument) (domain.Document, error) {
	if !s.IsReady() {
		return domain.Document{}, ErrNotReady
	}

	doc, err := s.buildDocument(nd)
	if err != nil {
		return domain.Document{}, err
	}

	err = s.mutate(ctx, func(now time.Time) (bool, error) {
		if err := s.checkFolder(doc.FolderID); err != nil {
			return false, err
		}
		s.store.Put(doc, now)
		return true, nil
	})
	if errors.Is(err, ErrInvalidDocument) {
		return domain.Document{}, err
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to store document: %w", err)
	}

	slog.Info("Document added", "id", doc.ID, "name", doc.Name)
	return doc, nil
}

func (s *Service) buildDocument(nd NewDocument) (domain.Document, error) {
	name := strings.TrimSpace(nd.Name)
	if name == "" {
		return domain.Document{}, fmt.Errorf("%w: name is required", ErrInvalidDocument)
	}

	docType := domain.TypeOther
	if nd.Type != "" {
		if docType = domain.NormalizeType(nd.Type); docType == "" {
			return domain.Document{}, fmt.Errorf("%w: unknown type %q", ErrInvalidDocument, nd.Type)
		}
	}

	status := domain.StatusAnalyzed
	if nd.Status != "" {
		if status = domain.NormalizeStatus(nd.Status); status == "" {
			return domain.Document{}, fmt.Errorf("%w: unknown status %q", ErrInvalidDocument, nd.Status)
		}
	}

	priority := ""
	if nd.Priority != "" {
		if priority = domain.NormalizePriority(nd.Priority); priority == "" {
			return domain.Document{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidDocument, nd.Priority)
		}
	}

	if nd.Risks < 0 {
		return domain.Document{}, fmt.Errorf("%w: risks cannot be negative", ErrInvalidDocument)
	}

	tags := normalizeTags(nd.Tags)

	doc := domain.Document{
		ID:         NewDocumentID(),
		Name:       name,
		Type:       docType,
		Status:     status,
		UploadedAt: s.clock(),
		Clauses:    len(ExtractClauses(nd.Content)),
		Risks:      nd.Risks,
		Summary:    strings.TrimSpace(nd.Summary),
		Content:    nd.Content,
		FolderID:   normalizeFolderRef(nd.FolderID),
		Tags:       tags,
		Priority:   priority,
	}
	if nd.Content != "" {
		doc.Size = FormatSize(len(nd.Content))
	}
	return doc, nil
}

// DocumentUpdate holds the fields to change on a document.
// Nil fields are left as they are; an empty FolderID moves the document to the library root.
type DocumentUpdate struct {
	Name     *string
	Type     *string
	Status   *string
	Summary  *string
	Content  *string
	FolderID *string
	Priority *string
	Risks    *int
	Tags     []string // nil leaves tags unchanged, an empty slice clears them
}

// IsEmpty reports whether the update changes nothing.
func (u DocumentUpdate) IsEmpty() bool {
	return u.Name == nil && u.Type == nil && u.Status == nil && u.Summary == nil && u.Content == nil &&
		u.FolderID == nil && u.Priority == nil && u.Risks == nil && u.Tags == nil
}

// apply returns doc with the update applied.
func (u DocumentUpdate) apply(doc domain.Document) (domain.Document, error) {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return doc, fmt.Errorf("%w: name cannot be empty", ErrInvalidDocument)
		}
		doc.Name = name
	}
	if u.Type != nil {
		t := domain.NormalizeType(*u.Type)
		if t == "" {
			return doc, fmt.Errorf("%w: unknown type %q", ErrInvalidDocument, *u.Type)
		}
		doc.Type = t
	}
	if u.Status != nil {
		st := domain.NormalizeStatus(*u.Status)
		if st == "" {
			return doc, fmt.Errorf("%w: unknown status %q", ErrInvalidDocument, *u.Status)
		}
		doc.Status = st
	}
	if u.Priority != nil {
		p := ""
		if strings.TrimSpace(*u.Priority) != "" {
			if p = domain.NormalizePriority(*u.Priority); p == "" {
				return doc, fmt.Errorf("%w: unknown priority %q", ErrInvalidDocument, *u.Priority)
			}
		}
		doc.Priority = p
	}
	if u.Risks != nil {
		if *u.Risks < 0 {
			return doc, fmt.Errorf("%w: risks cannot be negative", ErrInvalidDocument)
		}
		doc.Risks = *u.Risks
	}
	if u.Summary != nil {
		doc.Summary = strings.TrimSpace(*u.Summary)
	}
	if u.Content != nil {
		doc.Content = *u.Content
		doc.Clauses = len(ExtractClauses(doc.Content))
		doc.Size = ""
		if doc.Content != "" {
			doc.Size = FormatSize(len(doc.Content))
		}
	}
	if u.FolderID != nil {
		doc.FolderID = normalizeFolderRef(*u.FolderID)
	}
	if u.Tags != nil {
		doc.Tags = normalizeTags(u.Tags)
	}
	return doc, nil
}

// Update changes the given fields of a document and returns the result.
// Replacing the content recomputes the clause count and size label.
func (s *Service) Update(ctx context.Context, id string, u DocumentUpdate) (domain.Document, error) {
	if !s.IsReady() {
		return domain.Document{}, ErrNotReady
	}
	id = strings.TrimSpace(id)
	if u.IsEmpty() {
		return domain.Document{}, fmt.Errorf("%w: no fields to update", ErrInvalidDocument)
	}

	var updated domain.Document
	err := s.mutate(ctx, func(now time.Time) (bool, error) {
		doc, ok := s.store.Get(id)
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		doc, err := u.apply(doc)
		if err != nil {
			return false, err
		}
		if u.FolderID != nil {
			if err := s.checkFolder(doc.FolderID); err != nil {
				return false, err
			}
		}
		updated = doc
		return s.store.Update(doc, now), nil
	})
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidDocument) {
		return domain.Document{}, err
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to update document: %w", err)
	}

	slog.Info("Document updated", "id", id)
	return updated, nil
}

func normalizeTags(in []string) []string {
	tags := []string{}
	for _, tag := range in {
		if tag = strings.TrimSpace(tag); tag != "" && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// normalizeFolderRef maps the root folder alias to an empty folder ID.
func normalizeFolderRef(id string) string {
	id = strings.TrimSpace(id)
	if id == RootFolderID {
		return ""
	}
	return id
}

// Delete removes a document from the library and the index.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !s.IsReady() {
		return ErrNotReady
	}
	id = strings.TrimSpace(id)

	found := false
	err := s.mutate(ctx, func(now time.Time) (bool, error) {
		found = s.store.Delete(id, now)
		return found, nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	slog.Info("Document deleted", "id", id)
	return nil
}

// Analytics computes library statistics as of the service clock.
func (s *Service) Analytics() (Analytics, error) {
	if !s.IsReady() {
		return Analytics{}, ErrNotReady
	}
	s.refresh()
	return computeAnalytics(s.store.All(), s.store.Messages(), s.clock()), nil
}

func computeAnalytics(docs []domain.Document, messages []domain.ChatMessage, now time.Time) Analytics {
	a := Analytics{
		TotalDocuments:    len(docs),
		HoursSaved:        int(float64(len(docs)) * HoursSavedPerDocument),
		ByStatus:          make(map[string]int),
		TopDocumentTypes:  []TypeCount{},
		HighRiskDocuments: []RiskDocument{},
	}

	byType := make(map[string]int)
	for _, doc := range docs {
		a.RiskAlerts += doc.Risks
		byType[doc.Type]++
		a.ByStatus[doc.Status]++

		if sameMonth(doc.UploadedAt, now) {
			a.DocumentsThisMonth++
		}
		if doc.Risks > HighRiskThreshold {
			a.HighRiskDocuments = append(a.HighRiskDocuments, RiskDocument{ID: doc.ID, Name: doc.Name, Risks: doc.Risks})
		}
	}

	for _, msg := range messages {
		if msg.Role != domain.RoleUser {
			continue
		}
		a.TotalQueries++
		if sameMonth(msg.Timestamp, now) {
			a.QueriesThisMonth++
		}
	}

	for t, n := range byType {
		a.TopDocumentTypes = append(a.TopDocumentTypes, TypeCount{Type: t, Count: n})
	}
	slices.SortFunc(a.TopDocumentTypes, func(x, y TypeCount) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return cmp.Compare(x.Type, y.Type)
	})
	if len(a.TopDocumentTypes) > TopTypesLimit {
		a.TopDocumentTypes = a.TopDocumentTypes[:TopTypesLimit]
	}

	slices.SortFunc(a.HighRiskDocuments, func(x, y RiskDocument) int {
		if c := cmp.Compare(y.Risks, x.Risks); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return a
}

func sameMonth(t, now time.Time) bool {
	t = t.In(now.Location())
	return t.Year() == now.Year() && t.Month() == now.Month()
}

// Close releases the index.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		if err := s.index.Close(); err != nil {
			return fmt.Errorf("failed to close index: %w", err)
		}
		s.index = nil
	}

	s.ready = false
	return nil
}
