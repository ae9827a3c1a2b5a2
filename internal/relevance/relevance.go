// Package relevance ranks library documents against a free-text query using
// weighted, case-insensitive substring checks and a recency boost.
package relevance

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/sha1n/mcp-lexdesk-server/internal/domain"
)

// Field weights. A document's score is the capped sum of the signals it matches.
const (
	NameWeight    = 30
	SummaryWeight = 25
	ContentWeight = 20
	TagWeight     = 15
	RecencyBoost  = 10

	MaxScore = 100
)

const (
	// RecencyWindow is how recent an upload must be to earn RecencyBoost.
	RecencyWindow = 30 * 24 * time.Hour

	// DefaultSourceLimit is the number of sources attached to an answer.
	DefaultSourceLimit = 5
)

// Result pairs a document with its score for one query.
type Result struct {
	Document domain.Document
	Score    int
}

// Score returns the relevance of doc for query in [0, MaxScore].
// now is the reference time for the recency boost.
func Score(query string, doc domain.Document, now time.Time) int {
	q := strings.ToLower(query)
	s := fieldScore(q, doc)
	if isRecent(doc.UploadedAt, now) {
		s += RecencyBoost
	}
	return min(s, MaxScore)
}

// Matches reports whether query matches any field of doc. Recency is not a match.
func Matches(query string, doc domain.Document) bool {
	return fieldScore(strings.ToLower(query), doc) > 0
}

// RankAndFilter scores every document and returns those matching at least one
// field, best first. Equal scores put the most recent upload first. At most
// topN results are returned; topN <= 0 returns all matches. docs is not modified.
func RankAndFilter(query string, docs []domain.Document, topN int, now time.Time) []Result {
	q := strings.ToLower(query)
	results := make([]Result, 0, len(docs))

	for _, doc := range docs {
		fs := fieldScore(q, doc)
		if fs == 0 {
			continue
		}
		if isRecent(doc.UploadedAt, now) {
			fs += RecencyBoost
		}
		results = append(results, Result{Document: doc, Score: min(fs, MaxScore)})
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := b.Document.UploadedAt.Compare(a.Document.UploadedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Document.ID, b.Document.ID)
	})

	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}
	return results
}

// fieldScore sums the field weights matched by the lowercased query q.
func fieldScore(q string, doc domain.Document) int {
	s := 0
	if strings.Contains(strings.ToLower(doc.Name), q) {
		s += NameWeight
	}
	if strings.Contains(strings.ToLower(doc.Summary), q) {
		s += SummaryWeight
	}
	if doc.HasContent() && strings.Contains(strings.ToLower(doc.Content), q) {
		s += ContentWeight
	}
	for _, tag := range doc.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			s += TagWeight
			break
		}
	}
	return s
}

func isRecent(uploadedAt, now time.Time) bool {
	if uploadedAt.IsZero() {
		return false
	}
	return now.Sub(uploadedAt) < RecencyWindow
}
