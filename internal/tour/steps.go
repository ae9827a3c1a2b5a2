// Package tour describes the guided product tour and places its tooltips.
package tour

import (
	"time"

	"github.com/sha1n/mcp-lexdesk-server/internal/placement"
)

// BodyTarget is the step target meaning the whole page rather than one element.
const BodyTarget = "body"

// DefaultDelay is how long a step stays up when auto-playing.
const DefaultDelay = 10 * time.Second

// Step is one stop of the tour.
type Step struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Target      string         `json:"target"`
	Side        placement.Side `json:"side"`
	Action      string         `json:"action,omitempty"`
	Delay       time.Duration  `json:"delay"`
}

// IsWholePage reports whether the step is anchored to the page instead of an element.
func (s Step) IsWholePage() bool {
	return s.Target == "" || s.Target == BodyTarget
}

// Steps is an ordered tour.
type Steps []Step

// DefaultSteps returns the product tour, welcome to complete.
func DefaultSteps() Steps {
	return Steps{
		{
			ID:          "welcome",
			Title:       "Welcome to PrivateGPT Legal!",
			Description: "Let me show you around your new AI-powered legal assistant. This tour will take about 2 minutes.",
			Target:      BodyTarget,
			Side:        placement.SideBottom,
			Delay:       8 * time.Second,
		},
		{
			ID:          "sidebar",
			Title:       "Navigation Sidebar",
			Description: "Your main navigation hub. Access all features from here. You can collapse it by clicking the arrow.",
			Target:      `[data-tour="nav-dashboard"]`,
			Side:        placement.SideRight,
			Delay:       DefaultDelay,
		},
		{
			ID:          "dashboard",
			Title:       "Dashboard Overview",
			Description: "Your command center showing document stats, recent activity, and quick actions.",
			Target:      `[data-tour="dashboard-stats"]`,
			Side:        placement.SideBottom,
			Delay:       DefaultDelay,
		},
		{
			ID:          "upload",
			Title:       "Document Upload",
			Description: "Upload legal documents here for AI analysis. Supports PDF, DOCX, and more.",
			Target:      `[data-tour="upload-button"]`,
			Side:        placement.SideBottom,
			Action:      "hover",
			Delay:       DefaultDelay,
		},
		{
			ID:          "chat",
			Title:       "AI Assistant",
			Description: "Ask questions about your documents and get instant, intelligent answers.",
			Target:      `[data-tour="nav-chat"]`,
			Side:        placement.SideRight,
			Delay:       DefaultDelay,
		},
		{
			ID:          "documents",
			Title:       "Document Management",
			Description: "View, organize, and analyze all your legal documents in one place.",
			Target:      `[data-tour="nav-documents"]`,
			Side:        placement.SideRight,
			Delay:       DefaultDelay,
		},
		{
			ID:          "search",
			Title:       "Smart Search",
			Description: "Find specific clauses, cases, or information across all your documents instantly.",
			Target:      `[data-tour="nav-search"]`,
			Side:        placement.SideRight,
			Delay:       DefaultDelay,
		},
		{
			ID:          "clauses",
			Title:       "Clause Analysis",
			Description: "AI-powered clause extraction and risk assessment for your contracts.",
			Target:      `[data-tour="nav-clauses"]`,
			Side:        placement.SideRight,
			Delay:       DefaultDelay,
		},
		{
			ID:          "workflows",
			Title:       "Workflow Automation",
			Description: "Automate repetitive tasks and create custom workflows for your legal processes.",
			Target:      `[data-tour="nav-workflows"]`,
			Side:        placement.SideRight,
			Delay:       DefaultDelay,
		},
		{
			ID:          "analytics",
			Title:       "Analytics & Insights",
			Description: "Track your productivity, document patterns, and get AI-powered insights.",
			Target:      `[data-tour="nav-analytics"]`,
			Side:        placement.SideRight,
			Delay:       DefaultDelay,
		},
		{
			ID:          "complete",
			Title:       "You're All Set!",
			Description: "You're ready to transform your legal practice with AI. Start by uploading your first document!",
			Target:      BodyTarget,
			Side:        placement.SideBottom,
			Delay:       8 * time.Second,
		},
	}
}

// Index returns the position of the step with id, or -1.
func (s Steps) Index(id string) int {
	for i, step := range s {
		if step.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the step with id.
func (s Steps) Find(id string) (Step, bool) {
	if i := s.Index(id); i >= 0 {
		return s[i], true
	}
	return Step{}, false
}

// Next returns the step after id. The last step is its own successor.
func (s Steps) Next(id string) (Step, bool) {
	i := s.Index(id)
	if i < 0 {
		return Step{}, false
	}
	return s[min(i+1, len(s)-1)], true
}

// Prev returns the step before id. The first step is its own predecessor.
func (s Steps) Prev(id string) (Step, bool) {
	i := s.Index(id)
	if i < 0 {
		return Step{}, false
	}
	return s[max(i-1, 0)], true
}
