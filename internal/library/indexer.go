package library

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/sha1n/mcp-lexdesk-server/internal/domain"
)

const (
	// MaxBatchSize is the maximum number of documents per index batch
	MaxBatchSize = 100

	nameBoost    = 3.0
	clausesBoost = 2.5
	tagsBoost    = 2.0
	summaryBoost = 1.5
)

// indexedDocument is the shape stored in the full-text index.
type indexedDocument struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Status       string   `json:"status"`
	Summary      string   `json:"summary"`
	Content      string   `json:"content"`
	Tags         []string `json:"tags"`
	ClauseTitles []string `json:"clause_titles"`
}

func toIndexed(doc domain.Document) indexedDocument {
	return indexedDocument{
		ID:           doc.ID,
		Name:         doc.Name,
		Type:         doc.Type,
		Status:       doc.Status,
		Summary:      doc.Summary,
		Content:      doc.Content,
		Tags:         doc.Tags,
		ClauseTitles: ExtractClauses(doc.Content),
	}
}

// CreateIndexMapping creates the Bleve index mapping for library documents.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Analyzed, stored text fields
	for _, field := range []string{domain.DocFieldName, domain.DocFieldSummary, domain.DocFieldTags, domain.DocFieldClauses} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		fm.Store = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	// Content - analyzed with term vectors for highlighting
	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = true
	contentField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(domain.DocFieldContent, contentField)

	// Type and status - keyword (not analyzed) for exact filtering
	for _, field := range []string{domain.DocFieldType, domain.DocFieldStatus} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	// ID - stored but not indexed (we use the document ID)
	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	docMapping.AddFieldMappingsAt(domain.DocFieldID, idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// Index is an in-memory full-text index over the library.
// It is rebuilt from the store on startup and kept in step with adds and deletes.
type Index struct {
	index bleve.Index
	mu    sync.RWMutex
}

// FullTextHit is a single full-text search match.
type FullTextHit struct {
	ID        string
	Score     float64
	Fragments []string
}

// FullTextResult is the outcome of a full-text search.
type FullTextResult struct {
	Total uint64
	Hits  []FullTextHit
}

// NewIndex builds an index containing docs.
func NewIndex(docs []domain.Document) (*Index, error) {
	idx, err := bleve.NewMemOnly(CreateIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	batch := idx.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, toIndexed(doc)); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}
		if batch.Size() >= MaxBatchSize {
			if err := idx.Batch(batch); err != nil {
				_ = idx.Close()
				return nil, fmt.Errorf("batch index failed: %w", err)
			}
			batch = idx.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("final batch index failed: %w", err)
		}
	}

	return &Index{index: idx}, nil
}

// Put indexes or reindexes doc.
func (i *Index) Put(doc domain.Document) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.index.Index(doc.ID, toIndexed(doc))
}

// Delete removes the document with the given id.
func (i *Index) Delete(id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.index.Delete(id)
}

// DocCount returns the number of indexed documents.
func (i *Index) DocCount() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.index.DocCount()
}

// Search runs a full-text query, optionally restricted to one document type.
func (i *Index) Search(queryStr, docType string, size int) (*FullTextResult, error) {
	req := bleve.NewSearchRequest(buildQuery(queryStr, docType))
	req.Size = size
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField(domain.DocFieldContent)
	req.Highlight.AddField(domain.DocFieldSummary)

	i.mu.RLock()
	res, err := i.index.Search(req)
	i.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	out := &FullTextResult{Total: res.Total, Hits: make([]FullTextHit, 0, len(res.Hits))}
	for _, hit := range res.Hits {
		var fragments []string
		for _, field := range []string{domain.DocFieldContent, domain.DocFieldSummary} {
			fragments = append(fragments, hit.Fragments[field]...)
		}
		out.Hits = append(out.Hits, FullTextHit{ID: hit.ID, Score: hit.Score, Fragments: fragments})
	}
	return out, nil
}

// Close releases the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.index.Close()
}

// buildQuery matches the query against every text field, weighting name,
// clause headings and tags above body text.
func buildQuery(queryStr, docType string) query.Query {
	field := func(name string, boost float64) query.Query {
		q := bleve.NewMatchQuery(queryStr)
		q.SetField(name)
		if boost != 1 {
			q.SetBoost(boost)
		}
		return q
	}

	text := bleve.NewDisjunctionQuery(
		field(domain.DocFieldName, nameBoost),
		field(domain.DocFieldClauses, clausesBoost),
		field(domain.DocFieldTags, tagsBoost),
		field(domain.DocFieldSummary, summaryBoost),
		field(domain.DocFieldContent, 1),
	)

	docType = strings.TrimSpace(docType)
	if docType == "" {
		return text
	}

	typeQuery := bleve.NewTermQuery(docType)
	typeQuery.SetField(domain.DocFieldType)
	return bleve.NewConjunctionQuery(text, typeQuery)
}
