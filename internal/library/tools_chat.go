package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-lexdesk-server/internal/domain"
)

// ChatArgument defines chat history listing parameters.
type ChatArgument struct {
	SessionID string `json:"session_id,omitempty" jsonschema_description:"Only messages of this session"`
	Limit     int    `json:"limit,omitempty" jsonschema_description:"Show only the most recent messages"`
}

// ChatHandler handles the list_chat_messages MCP tool.
type ChatHandler struct {
	service *Service
}

// NewChatHandler creates a new chat history handler.
func NewChatHandler(service *Service) *ChatHandler {
	return &ChatHandler{service: service}
}

// Handle renders the chat history with cited sources.
func (h *ChatHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ChatArgument) (*mcp.CallToolResult, any, error) {
	if args.Limit < 0 {
		return errorResult("Limit cannot be negative"), nil, nil
	}

	msgs, err := h.service.Messages(args.SessionID, args.Limit)
	if err != nil {
		return serviceErrorResult("Listing", err), nil, nil
	}
	if len(msgs) == 0 {
		return textResult("No chat messages"), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d messages:\n\n", len(msgs)))
	for _, m := range msgs {
		sb.WriteString(formatMessage(m))
		sb.WriteString("\n")
	}
	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ChatHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolListChat,
		Description: "Show the saved assistant conversation history, including the documents cited by each answer",
	}
}

// SaveChatArgument defines a chat message to record.
type SaveChatArgument struct {
	Role      string   `json:"role" jsonschema_description:"Message author: user or assistant"`
	Content   string   `json:"content" jsonschema_description:"Message text"`
	SessionID string   `json:"session_id,omitempty" jsonschema_description:"Conversation session the message belongs to"`
	SourceIDs []string `json:"source_ids,omitempty" jsonschema_description:"IDs of library documents the message cites"`
}

// SaveChatHandler handles the save_chat_message MCP tool.
type SaveChatHandler struct {
	service *Service
}

// NewSaveChatHandler creates a new chat message handler.
func NewSaveChatHandler(service *Service) *SaveChatHandler {
	return &SaveChatHandler{service: service}
}

// Handle appends a message to the chat history. Cited documents must exist.
func (h *SaveChatHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SaveChatArgument) (*mcp.CallToolResult, any, error) {
	if !h.service.IsReady() {
		return errorResult(notReadyMessage), nil, nil
	}

	sources := make([]Source, 0, len(args.SourceIDs))
	for _, id := range args.SourceIDs {
		doc, err := h.service.Get(id)
		if err != nil {
			return serviceErrorResult("Save", err), nil, nil
		}
		sources = append(sources, Source{
			DocumentID: doc.ID,
			Name:       doc.Name,
			Type:       doc.Type,
			Excerpt:    doc.Excerpt(ExcerptLength),
		})
	}

	saved, err := h.service.SaveMessages(ctx, NewMessage{
		Role:      args.Role,
		Content:   args.Content,
		SessionID: args.SessionID,
		Sources:   sources,
	})
	if err != nil {
		return serviceErrorResult("Save", err), nil, nil
	}
	return textResult(fmt.Sprintf("Saved %s message %s", saved[0].Role, saved[0].ID)), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *SaveChatHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolSaveChat,
		Description: "Record a user question or an assistant answer in the conversation history",
	}
}

// ClearChatArgument takes no parameters.
type ClearChatArgument struct{}

// ClearChatHandler handles the clear_chat_messages MCP tool.
type ClearChatHandler struct {
	service *Service
}

// NewClearChatHandler creates a new chat reset handler.
func NewClearChatHandler(service *Service) *ClearChatHandler {
	return &ClearChatHandler{service: service}
}

// Handle resets the chat history to the welcome message.
func (h *ClearChatHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, _ ClearChatArgument) (*mcp.CallToolResult, any, error) {
	removed, err := h.service.ClearMessages(ctx)
	if err != nil {
		return serviceErrorResult("Clear", err), nil, nil
	}
	return textResult(fmt.Sprintf("Cleared chat history (%d messages removed)", removed)), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ClearChatHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolClearChat,
		Description: "Clear the conversation history, keeping only the assistant greeting",
	}
}

func formatMessage(m domain.ChatMessage) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**%s** (%s, %s)", m.Role, m.ID, m.Timestamp.UTC().Format("2006-01-02 15:04")))
	if m.SessionID != "" {
		sb.WriteString(fmt.Sprintf(" [session %s]", m.SessionID))
	}
	sb.WriteString("\n")
	sb.WriteString(m.Content)
	sb.WriteString("\n")
	for _, src := range m.Sources {
		if src.Relevance > 0 {
			sb.WriteString(fmt.Sprintf("- source: %s (%s) relevance %d%%\n", src.Name, src.DocumentID, src.Relevance))
		} else {
			sb.WriteString(fmt.Sprintf("- source: %s (%s)\n", src.Name, src.DocumentID))
		}
	}
	return sb.String()
}
