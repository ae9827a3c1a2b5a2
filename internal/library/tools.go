package library

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-lexdesk-server/internal/metrics"
)

// Tool names
const (
	ToolSearchDocuments  = "search_documents"
	ToolFindSources      = "find_sources"
	ToolFullTextSearch   = "fulltext_search"
	ToolGetDocument      = "get_document"
	ToolListDocuments    = "list_documents"
	ToolAddDocument      = "add_document"
	ToolDeleteDocument   = "delete_document"
	ToolLibraryAnalytics = "library_analytics"
	ToolUpdateDocument   = "update_document"
	ToolListFolders      = "list_folders"
	ToolSaveFolder       = "save_folder"
	ToolDeleteFolder     = "delete_folder"
	ToolListChat         = "list_chat_messages"
	ToolSaveChat         = "save_chat_message"
	ToolClearChat        = "clear_chat_messages"
)

const notReadyMessage = "The document library is not available yet. Please try again later."

// RegisterTools registers every library tool with an MCP server.
func RegisterTools(server *mcp.Server, service *Service) {
	search := NewSearchHandler(service)
	mcp.AddTool(server, search.GetToolDefinition(), metrics.Instrument(ToolSearchDocuments, search.Handle))

	sources := NewSourcesHandler(service)
	mcp.AddTool(server, sources.GetToolDefinition(), metrics.Instrument(ToolFindSources, sources.Handle))

	fulltext := NewFullTextHandler(service)
	mcp.AddTool(server, fulltext.GetToolDefinition(), metrics.Instrument(ToolFullTextSearch, fulltext.Handle))

	get := NewGetHandler(service)
	mcp.AddTool(server, get.GetToolDefinition(), metrics.Instrument(ToolGetDocument, get.Handle))

	list := NewListHandler(service)
	mcp.AddTool(server, list.GetToolDefinition(), metrics.Instrument(ToolListDocuments, list.Handle))

	add := NewAddHandler(service)
	mcp.AddTool(server, add.GetToolDefinition(), metrics.Instrument(ToolAddDocument, add.Handle))

	update := NewUpdateHandler(service)
	mcp.AddTool(server, update.GetToolDefinition(), metrics.Instrument(ToolUpdateDocument, update.Handle))

	del := NewDeleteHandler(service)
	mcp.AddTool(server, del.GetToolDefinition(), metrics.Instrument(ToolDeleteDocument, del.Handle))

	folders := NewFoldersHandler(service)
	mcp.AddTool(server, folders.GetToolDefinition(), metrics.Instrument(ToolListFolders, folders.Handle))

	saveFolder := NewSaveFolderHandler(service)
	mcp.AddTool(server, saveFolder.GetToolDefinition(), metrics.Instrument(ToolSaveFolder, saveFolder.Handle))

	deleteFolder := NewDeleteFolderHandler(service)
	mcp.AddTool(server, deleteFolder.GetToolDefinition(), metrics.Instrument(ToolDeleteFolder, deleteFolder.Handle))

	chat := NewChatHandler(service)
	mcp.AddTool(server, chat.GetToolDefinition(), metrics.Instrument(ToolListChat, chat.Handle))

	saveChat := NewSaveChatHandler(service)
	mcp.AddTool(server, saveChat.GetToolDefinition(), metrics.Instrument(ToolSaveChat, saveChat.Handle))

	clearChat := NewClearChatHandler(service)
	mcp.AddTool(server, clearChat.GetToolDefinition(), metrics.Instrument(ToolClearChat, clearChat.Handle))

	analytics := NewAnalyticsHandler(service)
	mcp.AddTool(server, analytics.GetToolDefinition(), metrics.Instrument(ToolLibraryAnalytics, analytics.Handle))
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// serviceErrorResult turns a service error into a user-facing tool error.
func serviceErrorResult(action string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, ErrNotReady):
		return errorResult(notReadyMessage)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidDocument),
		errors.Is(err, ErrFolderNotFound), errors.Is(err, ErrInvalidFolder), errors.Is(err, ErrInvalidMessage):
		return errorResult(capitalize(err.Error()))
	default:
		return errorResult(fmt.Sprintf("%s failed: %s", action, err))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// filterArgs holds the filter parameters shared by listing and search tools.
type filterArgs struct {
	Type           string
	Status         string
	Tag            string
	FolderID       string
	UploadedAfter  string
	UploadedBefore string
}

// toFilter parses and validates the filter arguments.
// A bare uploaded_before date includes the whole day.
func (a filterArgs) toFilter() (Filter, error) {
	f := Filter{
		Type:     a.Type,
		Status:   a.Status,
		Tag:      a.Tag,
		FolderID: a.FolderID,
	}

	var err error
	if a.UploadedAfter != "" {
		if f.UploadedAfter, err = ParseDate(a.UploadedAfter); err != nil {
			return f, err
		}
	}
	if a.UploadedBefore != "" {
		if f.UploadedBefore, err = ParseDate(a.UploadedBefore); err != nil {
			return f, err
		}
		f.UploadedBefore = EndOfDay(f.UploadedBefore)
	}
	return f.Normalize()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format("2006-01-02")
}
