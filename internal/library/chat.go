package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sha1n/mcp-lexdesk-server/internal/domain"
)

// NewMessage holds the caller-supplied fields of a chat message.
type NewMessage struct {
	Role      string
	Content   string
	SessionID string
	Sources   []Source
}

// Messages returns the chat history, oldest first.
// A non-empty sessionID keeps only that session's messages; limit > 0 keeps the most recent ones.
func (s *Service) Messages(sessionID string, limit int) ([]domain.ChatMessage, error) {
	if !s.IsReady() {
		return nil, ErrNotReady
	}
	s.refresh()

	msgs := s.store.Messages()
	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		kept := msgs[:0]
		for _, m := range msgs {
			if m.SessionID == sessionID {
				kept = append(kept, m)
			}
		}
		msgs = kept
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// SaveMessages appends messages to the chat history in one write.
func (s *Service) SaveMessages(ctx context.Context, in ...NewMessage) ([]domain.ChatMessage, error) {
	if !s.IsReady() {
		return nil, ErrNotReady
	}
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: no messages", ErrInvalidMessage)
	}

	var saved []domain.ChatMessage
	err := s.mutate(ctx, func(now time.Time) (bool, error) {
		saved = make([]domain.ChatMessage, 0, len(in))
		for _, nm := range in {
			msg, err := nm.toMessage(now)
			if err != nil {
				return false, err
			}
			saved = append(saved, msg)
		}
		s.store.AppendMessages(saved, now)
		return true, nil
	})
	if errors.Is(err, ErrInvalidMessage) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save messages: %w", err)
	}

	slog.Debug("Chat messages saved", "count", len(saved))
	return saved, nil
}

// ClearMessages resets the chat history to the welcome message and returns
// the number of messages removed.
func (s *Service) ClearMessages(ctx context.Context) (int, error) {
	if !s.IsReady() {
		return 0, ErrNotReady
	}

	removed := 0
	err := s.mutate(ctx, func(now time.Time) (bool, error) {
		removed = s.store.ResetMessages(InitialMessages(now), now)
		return true, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear messages: %w", err)
	}

	slog.Info("Chat history cleared", "removed", removed)
	return removed, nil
}

func (nm NewMessage) toMessage(now time.Time) (domain.ChatMessage, error) {
	role := domain.NormalizeRole(nm.Role)
	if role == "" {
		return domain.ChatMessage{}, fmt.Errorf("%w: role must be 'user' or 'assistant', got %q", ErrInvalidMessage, nm.Role)
	}
	content := strings.TrimSpace(nm.Content)
	if content == "" {
		return domain.ChatMessage{}, fmt.Errorf("%w: content cannot be empty", ErrInvalidMessage)
	}
	for _, src := range nm.Sources {
		if strings.TrimSpace(src.DocumentID) == "" {
			return domain.ChatMessage{}, fmt.Errorf("%w: source without document id", ErrInvalidMessage)
		}
	}

	return domain.ChatMessage{
		ID:        NewMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: now,
		SessionID: strings.TrimSpace(nm.SessionID),
		Sources:   nm.Sources,
	}, nil
}
