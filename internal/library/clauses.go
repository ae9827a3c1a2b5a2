package library

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
)

// clausePatterns match clause headings in plain-text legal documents.
// The first capture group is the heading title.
var clausePatterns = []*regexp.Regexp{
	// 1. EMPLOYMENT TERMS
	regexp.MustCompile(`(?m)^[ \t]*\d+(?:\.\d+)*\.?[ \t]+([A-Z][A-Z0-9 ,&'/()\-]*[A-Z0-9)])[ \t]*$`),
	// Section 4. Confidentiality / Article IV: Governing Law
	regexp.MustCompile(`(?mi)^[ \t]*(?:section|article)[ \t]+[0-9IVXLC]+(?:\.\d+)*[.:]?[ \t]+(\S[^\n]*?)[ \t]*$`),
}

const maxClauseTitleLen = 100

// ExtractClauses returns the clause headings found in content, in document order
// and without duplicates.
func ExtractClauses(content string) []string {
	if content == "" {
		return nil
	}

	type found struct {
		pos   int
		title string
	}
	var hits []found
	for _, re := range clausePatterns {
		for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
			if len(m) < 4 || m[2] < 0 {
				continue
			}
			title := strings.TrimSpace(content[m[2]:m[3]])
			if title == "" || len(title) >= maxClauseTitleLen {
				continue
			}
			hits = append(hits, found{pos: m[0], title: title})
		}
	}

	if len(hits) == 0 {
		return nil
	}

	// Patterns are scanned one after another; restore document order.
	slices.SortStableFunc(hits, func(a, b found) int { return cmp.Compare(a.pos, b.pos) })

	seen := make(map[string]struct{}, len(hits))
	titles := make([]string, 0, len(hits))
	for _, h := range hits {
		key := strings.ToLower(h.title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		titles = append(titles, h.title)
	}
	return titles
}
