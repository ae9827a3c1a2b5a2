package domain

import "time"

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var roles = []string{RoleUser, RoleAssistant}

// Source is a library document cited by a chat message.
type Source struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Relevance  int    `json:"relevance"`
	Excerpt    string `json:"excerpt,omitempty"`
}

// ChatMessage is one entry of the assistant conversation history.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id,omitempty"`
	Sources   []Source  `json:"sources,omitempty"`
}

// NormalizeRole returns the canonical role name, or "" if unknown.
func NormalizeRole(r string) string {
	return canonical(roles, r)
}
