package tour

import (
	"testing"

	"github.com/sha1n/mcp-lexdesk-server/internal/placement"
)

func TestDefaultSteps(t *testing.T) {
	steps := DefaultSteps()

	if len(steps) != 11 {
		t.Fatalf("Expected 11 steps, got %d", len(steps))
	}
	if steps[0].ID != "welcome" || steps[len(steps)-1].ID != "complete" {
		t.Errorf("Unexpected first/last steps %s/%s", steps[0].ID, steps[len(steps)-1].ID)
	}

	seen := make(map[string]bool)
	for _, s := range steps {
		if seen[s.ID] {
			t.Errorf("Duplicate step ID %s", s.ID)
		}
		seen[s.ID] = true

		if _, err := placement.ParseSide(string(s.Side)); err != nil {
			t.Errorf("Step %s has invalid side %q", s.ID, s.Side)
		}
		if s.Delay <= 0 {
			t.Errorf("Step %s has no delay", s.ID)
		}
	}

	if !steps[0].IsWholePage() || !steps[10].IsWholePage() {
		t.Error("Welcome and complete steps should cover the whole page")
	}
	if steps[1].IsWholePage() {
		t.Error("Sidebar step should target an element")
	}
	if steps[3].Action != "hover" {
		t.Errorf("Expected upload step to hover, got %q", steps[3].Action)
	}
}

func TestSteps_Navigation(t *testing.T) {
	steps := DefaultSteps()

	tests := []struct {
		id        string
		wantIndex int
		wantPrev  string
		wantNext  string
	}{
		{"welcome", 0, "welcome", "sidebar"},
		{"upload", 3, "dashboard", "chat"},
		{"complete", 10, "analytics", "complete"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := steps.Index(tt.id); got != tt.wantIndex {
				t.Errorf("Index = %d, want %d", got, tt.wantIndex)
			}
			if step, ok := steps.Find(tt.id); !ok || step.ID != tt.id {
				t.Errorf("Find(%s) = %v, %v", tt.id, step.ID, ok)
			}
			if prev, ok := steps.Prev(tt.id); !ok || prev.ID != tt.wantPrev {
				t.Errorf("Prev = %s, want %s", prev.ID, tt.wantPrev)
			}
			if next, ok := steps.Next(tt.id); !ok || next.ID != tt.wantNext {
				t.Errorf("Next = %s, want %s", next.ID, tt.wantNext)
			}
		})
	}
}

func TestSteps_Unknown(t *testing.T) {
	steps := DefaultSteps()

	if steps.Index("missing") != -1 {
		t.Error("Expected -1 for unknown step")
	}
	if _, ok := steps.Find("missing"); ok {
		t.Error("Find should fail for unknown step")
	}
	if _, ok := steps.Next("missing"); ok {
		t.Error("Next should fail for unknown step")
	}
	if _, ok := steps.Prev("missing"); ok {
		t.Error("Prev should fail for unknown step")
	}
}
