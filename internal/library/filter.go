package library

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sha1n/mcp-lexdesk-server/internal/domain"
)

// RootFolderID selects the documents not filed in any folder.
const RootFolderID = "root"

// dateLayouts are the accepted spellings of a date argument.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Filter narrows the library before listing or ranking.
// Zero-valued fields do not filter.
type Filter struct {
	Type           string
	Status         string
	Tag            string
	FolderID       string
	UploadedAfter  time.Time
	UploadedBefore time.Time
}

// IsEmpty reports whether the filter accepts every document.
func (f Filter) IsEmpty() bool {
	return f.Type == "" && f.Status == "" && f.Tag == "" && f.FolderID == "" &&
		f.UploadedAfter.IsZero() && f.UploadedBefore.IsZero()
}

// Normalize canonicalizes type and status and checks the date range.
func (f Filter) Normalize() (Filter, error) {
	if f.Type != "" {
		t := domain.NormalizeType(f.Type)
		if t == "" {
			return f, fmt.Errorf("unknown document type %q", f.Type)
		}
		f.Type = t
	}
	if f.Status != "" {
		s := domain.NormalizeStatus(f.Status)
		if s == "" {
			return f, fmt.Errorf("unknown document status %q", f.Status)
		}
		f.Status = s
	}
	f.Tag = strings.TrimSpace(f.Tag)
	f.FolderID = strings.TrimSpace(f.FolderID)

	if !f.UploadedAfter.IsZero() && !f.UploadedBefore.IsZero() && f.UploadedBefore.Before(f.UploadedAfter) {
		return f, fmt.Errorf("uploaded_before (%s) is earlier than uploaded_after (%s)",
			f.UploadedBefore.Format(time.RFC3339), f.UploadedAfter.Format(time.RFC3339))
	}
	return f, nil
}

// Match reports whether doc passes the filter.
// The date range is inclusive at both ends; tags compare case-insensitively.
func (f Filter) Match(doc domain.Document) bool {
	if f.Type != "" && !strings.EqualFold(doc.Type, f.Type) {
		return false
	}
	if f.Status != "" && !strings.EqualFold(doc.Status, f.Status) {
		return false
	}
	switch f.FolderID {
	case "":
	case RootFolderID:
		if doc.FolderID != "" {
			return false
		}
	default:
		if doc.FolderID != f.FolderID {
			return false
		}
	}
	if f.Tag != "" && !slices.ContainsFunc(doc.Tags, func(tag string) bool { return strings.EqualFold(tag, f.Tag) }) {
		return false
	}
	if !f.UploadedAfter.IsZero() && doc.UploadedAt.Before(f.UploadedAfter) {
		return false
	}
	if !f.UploadedBefore.IsZero() && doc.UploadedAt.After(f.UploadedBefore) {
		return false
	}
	return true
}

// Apply returns the documents that pass the filter, preserving order.
func (f Filter) Apply(docs []domain.Document) []domain.Document {
	if f.IsEmpty() {
		return docs
	}
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if f.Match(doc) {
			out = append(out, doc)
		}
	}
	return out
}

// ParseDate parses an RFC 3339 timestamp or a plain YYYY-MM-DD date (UTC).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
}

// EndOfDay returns the last instant of t's day when t is a bare date, otherwise t.
func EndOfDay(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}
