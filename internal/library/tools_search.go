package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-lexdesk-server/internal/domain"
	"github.com/sha1n/mcp-lexdesk-server/internal/metrics"
)

// SearchArgument defines relevance search parameters.
type SearchArgument struct {
	Query string `json:"query" jsonschema_description:"Text to look for in document names, summaries, content and tags (case-insensitive substring)"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum number of results (defaults to the server maximum)"`

	Type           string `json:"type,omitempty" jsonschema_description:"Filter by document type (Contract, M&A, Template, NDA, Employment, Litigation, Compliance, Other)"`
	Status         string `json:"status,omitempty" jsonschema_description:"Filter by status (Processing, Analyzed, Reviewed, Failed, Archived)"`
	Tag            string `json:"tag,omitempty" jsonschema_description:"Filter by tag (exact, case-insensitive)"`
	FolderID       string `json:"folder_id,omitempty" jsonschema_description:"Filter by folder ID; 'root' keeps documents outside any folder"`
	UploadedAfter  string `json:"uploaded_after,omitempty" jsonschema_description:"Only documents uploaded on or after this date (YYYY-MM-DD or RFC 3339)"`
	UploadedBefore string `json:"uploaded_before,omitempty" jsonschema_description:"Only documents uploaded on or before this date (YYYY-MM-DD or RFC 3339)"`
}

// SearchHandler handles the search_documents MCP tool.
type SearchHandler struct {
	service *Service
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service *Service) *SearchHandler {
	return &SearchHandler{service: service}
}

// Handle ranks library documents against the query.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	if !h.service.IsReady() {
		return errorResult(notReadyMessage), nil, nil
	}

	query := strings.TrimSpace(args.Query)
	if query == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	filter, err := filterArgs{
		Type:           args.Type,
		Status:         args.Status,
		Tag:            args.Tag,
		FolderID:       args.FolderID,
		UploadedAfter:  args.UploadedAfter,
		UploadedBefore: args.UploadedBefore,
	}.toFilter()
	if err != nil {
		return errorResult(fmt.Sprintf("Invalid filter: %s", err)), nil, nil
	}

	results, err := h.service.Search(query, filter, args.Limit)
	if err != nil {
		return serviceErrorResult("Search", err), nil, nil
	}
	metrics.ObserveResults(ToolSearchDocuments, len(results))

	if len(results) == 0 {
		return textResult(fmt.Sprintf("No documents found for query: %s", query)), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d documents for '%s':\n\n", len(results), query))
	for i, r := range results {
		doc := r.Document
		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, doc.Name))
		sb.WriteString(fmt.Sprintf("**ID**: %s | **Type**: %s | **Status**: %s | **Uploaded**: %s\n", doc.ID, doc.Type, doc.Status, formatDate(doc.UploadedAt)))
		sb.WriteString(fmt.Sprintf("**Relevance**: %d\n", r.Score))
		if doc.Summary != "" {
			sb.WriteString(doc.Summary)
			sb.WriteString("\n")
		}
		if len(doc.Tags) > 0 {
			sb.WriteString(fmt.Sprintf("**Tags**: %s\n", strings.Join(doc.Tags, ", ")))
		}
		sb.WriteString("\n")
	}

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolSearchDocuments,
		Description: "Search the legal document library and rank matches by relevance (name, summary, content, tags and upload recency)",
	}
}

// SourcesArgument defines source lookup parameters.
type SourcesArgument struct {
	Question  string `json:"question" jsonschema_description:"The question or topic the sources should support"`
	Record    bool   `json:"record,omitempty" jsonschema_description:"Save the question and the cited sources to the conversation history"`
	SessionID string `json:"session_id,omitempty" jsonschema_description:"Conversation session to record into"`
}

// SourcesHandler handles the find_sources MCP tool.
type SourcesHandler struct {
	service *Service
}

// NewSourcesHandler creates a new sources handler.
func NewSourcesHandler(service *Service) *SourcesHandler {
	return &SourcesHandler{service: service}
}

// Handle returns the documents that best support an answer, with excerpts.
func (h *SourcesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SourcesArgument) (*mcp.CallToolResult, any, error) {
	if !h.service.IsReady() {
		return errorResult(notReadyMessage), nil, nil
	}

	question := strings.TrimSpace(args.Question)
	if question == "" {
		return errorResult("Question cannot be empty"), nil, nil
	}

	sources, err := h.service.Sources(question)
	if err != nil {
		return serviceErrorResult("Source lookup", err), nil, nil
	}
	metrics.ObserveResults(ToolFindSources, len(sources))

	if args.Record {
		if _, err := h.service.SaveMessages(ctx, sourcesExchange(question, args.SessionID, sources)...); err != nil {
			return serviceErrorResult("Recording", err), nil, nil
		}
	}

	if len(sources) == 0 {
		return textResult(fmt.Sprintf("No supporting documents found for: %s", question)), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Sources for '%s':\n\n", question))
	for i, src := range sources {
		sb.WriteString(fmt.Sprintf("%d. **%s** (%s, id: %s) relevance %d%%\n", i+1, src.Name, src.Type, src.DocumentID, src.Relevance))
		if src.Excerpt != "" {
			sb.WriteString("> ")
			sb.WriteString(strings.ReplaceAll(src.Excerpt, "\n", "\n> "))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *SourcesHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolFindSources,
		Description: "Find the library documents that best support an answer to a question, with short excerpts for citation",
	}
}

// sourcesExchange is the question and the sources found for it, as chat messages.
func sourcesExchange(question, sessionID string, sources []Source) []NewMessage {
	answer := "No supporting documents found."
	if len(sources) > 0 {
		names := make([]string, len(sources))
		for i, src := range sources {
			names[i] = src.Name
		}
		answer = fmt.Sprintf("Found %d supporting documents: %s", len(sources), strings.Join(names, ", "))
	}
	return []NewMessage{
		{Role: domain.RoleUser, Content: question, SessionID: sessionID},
		{Role: domain.RoleAssistant, Content: answer, SessionID: sessionID, Sources: sources},
	}
}

// FullTextArgument defines full-text search parameters.
type FullTextArgument struct {
	Query string `json:"query" jsonschema_description:"Full-text query (tokenized, matches words in any field)"`
	Type  string `json:"type,omitempty" jsonschema_description:"Restrict to one document type"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum number of results (defaults to the server maximum)"`
}

// FullTextHandler handles the fulltext_search MCP tool.
type FullTextHandler struct {
	service *Service
}

// NewFullTextHandler creates a new full-text search handler.
func NewFullTextHandler(service *Service) *FullTextHandler {
	return &FullTextHandler{service: service}
}

// Handle runs a tokenized search over the library index.
func (h *FullTextHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FullTextArgument) (*mcp.CallToolResult, any, error) {
	if !h.service.IsReady() {
		return errorResult(notReadyMessage), nil, nil
	}

	query := strings.TrimSpace(args.Query)
	if query == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	matches, total, err := h.service.FullText(query, args.Type, args.Limit)
	if err != nil {
		return serviceErrorResult("Search", err), nil, nil
	}
	metrics.ObserveResults(ToolFullTextSearch, len(matches))

	if len(matches) == 0 {
		return textResult(fmt.Sprintf("No results found for query: %s", query)), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d results for '%s':\n\n", total, query))
	for i, m := range matches {
		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, m.Document.Name))
		sb.WriteString(fmt.Sprintf("**ID**: %s | **Type**: %s\n", m.Document.ID, m.Document.Type))
		sb.WriteString(fmt.Sprintf("**Score**: %.4f\n\n", m.Score))
		if len(m.Fragments) > 0 {
			sb.WriteString("```\n")
			for _, fragment := range m.Fragments {
				sb.WriteString(fragment)
				sb.WriteString("\n")
			}
			sb.WriteString("```\n")
		}
		sb.WriteString("\n")
	}

	if total > uint64(len(matches)) {
		sb.WriteString(fmt.Sprintf("... and %d more results\n", total-uint64(len(matches))))
	}

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *FullTextHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolFullTextSearch,
		Description: "Tokenized full-text search across document names, summaries, clause headings, tags and content",
	}
}
