package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddArgument defines the fields of a document being added.
type AddArgument struct {
	Name     string   `json:"name" jsonschema_description:"Document file name (e.g., Office Lease.pdf)"`
	Type     string   `json:"type,omitempty" jsonschema_description:"Document type (Contract, M&A, Template, NDA, Employment, Litigation, Compliance, Other); defaults to Other"`
	Status   string   `json:"status,omitempty" jsonschema_description:"Document status; defaults to Analyzed"`
	Summary  string   `json:"summary,omitempty" jsonschema_description:"Short summary of the document"`
	Content  string   `json:"content,omitempty" jsonschema_description:"Full plain-text content of the document"`
	Tags     []string `json:"tags,omitempty" jsonschema_description:"Tags for the document"`
	FolderID string   `json:"folder_id,omitempty" jsonschema_description:"Folder to file the document under"`
	Priority string   `json:"priority,omitempty" jsonschema_description:"Review priority (Low, Medium, High, Critical)"`
	Risks    int      `json:"risks,omitempty" jsonschema_description:"Number of identified risks"`
}

// AddHandler handles the add_document MCP tool.
type AddHandler struct {
	service *Service
}

// NewAddHandler creates a new add handler.
func NewAddHandler(service *Service) *AddHandler {
	return &AddHandler{service: service}
}

// Handle stores a new document and reports its assigned ID.
func (h *AddHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args AddArgument) (*mcp.CallToolResult, any, error) {
	if !h.service.IsReady() {
		return errorResult(notReadyMessage), nil, nil
	}

	doc, err := h.service.Add(ctx, NewDocument{
		Name:     args.Name,
		Type:     args.Type,
		Status:   args.Status,
		Summary:  args.Summary,
		Content:  args.Content,
		Tags:     args.Tags,
		FolderID: args.FolderID,
		Priority: args.Priority,
		Risks:    args.Risks,
	})
	if err != nil {
		return serviceErrorResult("Add", err), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Added **%s**\n\n", doc.Name))
	sb.WriteString(fmt.Sprintf("**ID**: %s\n", doc.ID))
	sb.WriteString(fmt.Sprintf("**Type**: %s | **Status**: %s\n", doc.Type, doc.Status))
	sb.WriteString(fmt.Sprintf("**Clauses detected**: %d\n", doc.Clauses))

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *AddHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolAddDocument,
		Description: "Add a plain-text legal document to the library",
	}
}

// DeleteArgument defines delete parameters.
type DeleteArgument struct {
	ID string `json:"id" jsonschema_description:"ID of the document to delete"`
}

// DeleteHandler handles the delete_document MCP tool.
type DeleteHandler struct {
	service *Service
}

// NewDeleteHandler creates a new delete handler.
func NewDeleteHandler(service *Service) *DeleteHandler {
	return &DeleteHandler{service: service}
}

// Handle removes a document from the library.
func (h *DeleteHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args DeleteArgument) (*mcp.CallToolResult, any, error) {
	if !h.service.IsReady() {
		return errorResult(notReadyMessage), nil, nil
	}

	if strings.TrimSpace(args.ID) == "" {
		return errorResult("ID cannot be empty"), nil, nil
	}

	if err := h.service.Delete(ctx, args.ID); err != nil {
		return serviceErrorResult("Delete", err), nil, nil
	}

	return textResult(fmt.Sprintf("Deleted document %s", strings.TrimSpace(args.ID))), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *DeleteHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolDeleteDocument,
		Description: "Delete a document from the library by ID",
	}
}

// UpdateArgument defines the fields to change on a document. Omitted fields are left unchanged.
type UpdateArgument struct {
	ID       string   `json:"id" jsonschema_description:"ID of the document to update"`
	Name     *string  `json:"name,omitempty" jsonschema_description:"New file name"`
	Type     *string  `json:"type,omitempty" jsonschema_description:"New document type"`
	Status   *string  `json:"status,omitempty" jsonschema_description:"New status (Processing, Analyzed, Reviewed, Failed, Archived)"`
	Summary  *string  `json:"summary,omitempty" jsonschema_description:"New summary"`
	Content  *string  `json:"content,omitempty" jsonschema_description:"New full text; clause count and size are recomputed"`
	FolderID *string  `json:"folder_id,omitempty" jsonschema_description:"Folder to move the document to; empty or 'root' moves it out of any folder"`
	Priority *string  `json:"priority,omitempty" jsonschema_description:"New review priority; empty clears it"`
	Risks    *int     `json:"risks,omitempty" jsonschema_description:"New number of identified risks"`
	Tags     []string `json:"tags,omitempty" jsonschema_description:"Replacement tag list"`
}

// UpdateHandler handles the update_document MCP tool.
type UpdateHandler struct {
	service *Service
}

// NewUpdateHandler creates a new update handler.
func NewUpdateHandler(service *Service) *UpdateHandler {
	return &UpdateHandler{service: service}
}

// Handle applies a partial update to a document.
func (h *UpdateHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args UpdateArgument) (*mcp.CallToolResult, any, error) {
	if !h.service.IsReady() {
		return errorResult(notReadyMessage), nil, nil
	}

	if strings.TrimSpace(args.ID) == "" {
		return errorResult("ID cannot be empty"), nil, nil
	}

	doc, err := h.service.Update(ctx, args.ID, DocumentUpdate{
		Name:     args.Name,
		Type:     args.Type,
		Status:   args.Status,
		Summary:  args.Summary,
		Content:  args.Content,
		FolderID: args.FolderID,
		Priority: args.Priority,
		Risks:    args.Risks,
		Tags:     args.Tags,
	})
	if err != nil {
		return serviceErrorResult("Update", err), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Updated **%s**\n\n", doc.Name))
	sb.WriteString(fmt.Sprintf("**ID**: %s\n", doc.ID))
	sb.WriteString(fmt.Sprintf("**Type**: %s | **Status**: %s\n", doc.Type, doc.Status))
	sb.WriteString(fmt.Sprintf("**Clauses**: %d | **Risks**: %d\n", doc.Clauses, doc.Risks))
	sb.WriteString(fmt.Sprintf("**Folder**: %s\n", folderLabel(doc)))

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *UpdateHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolUpdateDocument,
		Description: "Update fields of a library document, such as its status, folder, tags or text",
	}
}
