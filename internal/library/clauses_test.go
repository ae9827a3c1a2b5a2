package library

import (
	"slices"
	"testing"
)

func TestExtractClauses_NumberedHeadings(t *testing.T) {
	got := ExtractClauses(sampleEmploymentAgreement)
	want := []string{
		"EMPLOYMENT TERMS",
		"DUTIES AND RESPONSIBILITIES",
		"COMPENSATION",
		"CONFIDENTIALITY",
		"NON-COMPETE",
		"TERMINATION",
	}
	if !slices.Equal(got, want) {
		t.Errorf("ExtractClauses() = %v, want %v", got, want)
	}
}

func TestExtractClauses(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "empty",
			content: "",
			want:    nil,
		},
		{
			name:    "no headings",
			content: "This agreement has no numbered clauses at all.\nJust prose.",
			want:    nil,
		},
		{
			name:    "section and article headings",
			content: "Section 1. Definitions\nTerms used here.\nARTICLE IV: GOVERNING LAW\nDelaware.\nSection 2.1 Payment Terms\nNet 30.",
			want:    []string{"Definitions", "GOVERNING LAW", "Payment Terms"},
		},
		{
			name:    "mixed styles in document order",
			content: "1. SCOPE\ntext\nSection 2. Fees\ntext\n3. TERM AND TERMINATION\ntext",
			want:    []string{"SCOPE", "Fees", "TERM AND TERMINATION"},
		},
		{
			name:    "duplicates removed case-insensitively",
			content: "1. NOTICES\n2. NOTICES\nSection 3. Notices",
			want:    []string{"NOTICES"},
		},
		{
			name:    "numbered prose is not a heading",
			content: "1. The Company shall pay the Employee monthly.",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractClauses(tt.content)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ExtractClauses() = %v, want %v", got, tt.want)
			}
		})
	}
}
