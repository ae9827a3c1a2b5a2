package domain

import (
	"strings"
	"time"
)

// Document types used by the library.
const (
	TypeContract   = "Contract"
	TypeMA         = "M&A"
	TypeTemplate   = "Template"
	TypeNDA        = "NDA"
	TypeEmployment = "Employment"
	TypeLitigation = "Litigation"
	TypeCompliance = "Compliance"
	TypeOther      = "Other"
)

// Document statuses.
const (
	StatusProcessing = "Processing"
	StatusAnalyzed   = "Analyzed"
	StatusReviewed   = "Reviewed"
	StatusFailed     = "Failed"
	StatusArchived   = "Archived"
)

// Document priorities.
const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

var (
	documentTypes = []string{TypeContract, TypeMA, TypeTemplate, TypeNDA, TypeEmployment, TypeLitigation, TypeCompliance, TypeOther}
	statuses      = []string{StatusProcessing, StatusAnalyzed, StatusReviewed, StatusFailed, StatusArchived}
	priorities    = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
)

// Document is a legal document held by the library.
// It is the record scored by the relevance ranking and the value stored in the Bleve index.
type Document struct {
	// ID is the unique document identifier.
	// Format: "doc_1" for fixtures, "doc_<uuid>" for added documents.
	ID string `json:"id" yaml:"id"`

	// Name is the original file name, e.g. "NDA - Tech Partnership.pdf".
	Name string `json:"name" yaml:"name"`

	Type   string `json:"type" yaml:"type"`
	Status string `json:"status" yaml:"status"`

	// UploadedAt drives the recency boost of the relevance score.
	UploadedAt time.Time `json:"uploaded_at" yaml:"uploaded_at"`

	// Size is a human readable size label such as "2.4 MB".
	Size string `json:"size,omitempty" yaml:"size,omitempty"`

	Clauses int `json:"clauses" yaml:"clauses"`
	Risks   int `json:"risks" yaml:"risks"`

	Summary string `json:"summary" yaml:"summary"`

	// Content is the full document text. Empty means the text is not available.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	FolderID   string   `json:"folder_id,omitempty" yaml:"folder_id,omitempty"`
	Tags       []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Confidence float64  `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Priority   string   `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// HasContent reports whether the full text of the document is available.
func (d Document) HasContent() bool {
	return d.Content != ""
}

// Excerpt returns up to limit runes of the content, falling back to the summary.
func (d Document) Excerpt(limit int) string {
	text := d.Content
	if text == "" {
		text = d.Summary
	}
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// IsValidType reports whether t is a known document type (case-insensitive).
func IsValidType(t string) bool {
	return NormalizeType(t) != ""
}

// NormalizeType returns the canonical spelling of a document type, or "" if unknown.
func NormalizeType(t string) string {
	return canonical(documentTypes, t)
}

// NormalizeStatus returns the canonical spelling of a status, or "" if unknown.
func NormalizeStatus(s string) string {
	return canonical(statuses, s)
}

// NormalizePriority returns the canonical spelling of a priority, or "" if unknown.
func NormalizePriority(p string) string {
	return canonical(priorities, p)
}

func canonical(values []string, v string) string {
	v = strings.TrimSpace(v)
	for _, known := range values {
		if strings.EqualFold(known, v) {
			return known
		}
	}
	return ""
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	DocFieldID      = "id"
	DocFieldName    = "name"
	DocFieldType    = "type"
	DocFieldStatus  = "status"
	DocFieldSummary = "summary"
	DocFieldContent = "content"
	DocFieldTags    = "tags"
	DocFieldClauses = "clause_titles"
)
