package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-lexdesk-server/internal/domain"
)

// GetArgument defines document lookup parameters.
type GetArgument struct {
	ID             string `json:"id" jsonschema_description:"Document ID (e.g., doc_1)"`
	IncludeContent bool   `json:"include_content,omitempty" jsonschema_description:"Include the full document text when available"`
}

// GetHandler handles the get_document MCP tool.
type GetHandler struct {
	service *Service
}

// NewGetHandler creates a new document lookup handler.
func NewGetHandler(service *Service) *GetHandler {
	return &GetHandler{service: service}
}

// Handle returns the metadata, clause headings and optionally the text of one document.
func (h *GetHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args GetArgument) (*mcp.CallToolResult, any, error) {
	if !h.service.IsReady() {
		return errorResult(notReadyMessage), nil, nil
	}

	if strings.TrimSpace(args.ID) == "" {
		return errorResult("ID cannot be empty"), nil, nil
	}

	doc, err := h.service.Get(args.ID)
	if err != nil {
		return serviceErrorResult("Lookup", err), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", doc.Name))
	sb.WriteString(fmt.Sprintf("**ID**: %s\n", doc.ID))
	sb.WriteString(fmt.Sprintf("**Type**: %s\n", doc.Type))
	sb.WriteString(fmt.Sprintf("**Status**: %s\n", doc.Status))
	sb.WriteString(fmt.Sprintf("**Uploaded**: %s\n", formatDate(doc.UploadedAt)))
	if doc.Size != "" {
		sb.WriteString(fmt.Sprintf("**Size**: %s\n", doc.Size))
	}
	sb.WriteString(fmt.Sprintf("**Clauses**: %d | **Risks**: %d\n", doc.Clauses, doc.Risks))
	if doc.Priority != "" {
		sb.WriteString(fmt.Sprintf("**Priority**: %s\n", doc.Priority))
	}
	if doc.FolderID != "" {
		sb.WriteString(fmt.Sprintf("**Folder**: %s\n", doc.FolderID))
	}
	if len(doc.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("**Tags**: %s\n", strings.Join(doc.Tags, ", ")))
	}
	if doc.Summary != "" {
		sb.WriteString(fmt.Sprintf("\n## Summary\n%s\n", doc.Summary))
	}

	if clauses := ExtractClauses(doc.Content); len(clauses) > 0 {
		sb.WriteString("\n## Clauses\n")
		for _, c := range clauses {
			sb.WriteString(fmt.Sprintf("- %s\n", c))
		}
	}

	if args.IncludeContent {
		if doc.HasContent() {
			sb.WriteString(fmt.Sprintf("\n## Content\n```text\n%s\n```\n", doc.Content))
		} else {
			sb.WriteString("\n_The full text of this document is not available._\n")
		}
	}

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *GetHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolGetDocument,
		Description: "Get a document from the library by ID, including its clause headings and optionally its full text",
	}
}

// ListArgument defines listing parameters.
type ListArgument struct {
	Type           string `json:"type,omitempty" jsonschema_description:"Filter by document type (Contract, M&A, Template, NDA, Employment, Litigation, Compliance, Other)"`
	Status         string `json:"status,omitempty" jsonschema_description:"Filter by status (Processing, Analyzed, Reviewed, Failed, Archived)"`
	Tag            string `json:"tag,omitempty" jsonschema_description:"Filter by tag (exact, case-insensitive)"`
	FolderID       string `json:"folder_id,omitempty" jsonschema_description:"Filter by folder ID; 'root' keeps documents outside any folder"`
	UploadedAfter  string `json:"uploaded_after,omitempty" jsonschema_description:"Only documents uploaded on or after this date (YYYY-MM-DD or RFC 3339)"`
	UploadedBefore string `json:"uploaded_before,omitempty" jsonschema_description:"Only documents uploaded on or before this date (YYYY-MM-DD or RFC 3339)"`
}

// ListHandler handles the list_documents MCP tool.
type ListHandler struct {
	service *Service
}

// NewListHandler creates a new listing handler.
func NewListHandler(service *Service) *ListHandler {
	return &ListHandler{service: service}
}

// Handle lists library documents, newest first.
func (h *ListHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ListArgument) (*mcp.CallToolResult, any, error) {
	if !h.service.IsReady() {
		return errorResult(notReadyMessage), nil, nil
	}

	filter, err := filterArgs(args).toFilter()
	if err != nil {
		return errorResult(fmt.Sprintf("Invalid filter: %s", err)), nil, nil
	}

	docs, err := h.service.List(filter)
	if err != nil {
		return serviceErrorResult("Listing", err), nil, nil
	}

	if len(docs) == 0 {
		return textResult("No documents match the given filters"), nil, nil
	}

	return textResult(formatDocumentTable(docs)), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ListHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolListDocuments,
		Description: "List documents in the legal library, optionally filtered by type, status, tag, folder or upload date",
	}
}

func formatDocumentTable(docs []domain.Document) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d documents:\n\n", len(docs)))
	sb.WriteString("| ID | Name | Type | Status | Uploaded | Clauses | Risks |\n")
	sb.WriteString("|---|---|---|---|---|---|---|\n")
	for _, doc := range docs {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %d | %d |\n",
			doc.ID, escapeCell(doc.Name), doc.Type, doc.Status, formatDate(doc.UploadedAt), doc.Clauses, doc.Risks))
	}
	return sb.String()
}
