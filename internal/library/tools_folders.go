package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-lexdesk-server/internal/domain"
)

// FoldersArgument defines folder listing parameters.
type FoldersArgument struct {
	FolderID     string `json:"folder_id,omitempty" jsonschema_description:"Show one folder and the documents filed in it; 'root' shows documents outside any folder"`
	IncludeEmpty *bool  `json:"include_empty,omitempty" jsonschema_description:"Include folders with no documents (default true)"`
}

// FoldersHandler handles the list_folders MCP tool.
type FoldersHandler struct {
	service *Service
}

// NewFoldersHandler creates a new folder listing handler.
func NewFoldersHandler(service *Service) *FoldersHandler {
	return &FoldersHandler{service: service}
}

// Handle lists folders with their document counts, or the documents of one folder.
func (h *FoldersHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FoldersArgument) (*mcp.CallToolResult, any, error) {
	if !h.service.IsReady() {
		return errorResult(notReadyMessage), nil, nil
	}

	if id := strings.TrimSpace(args.FolderID); id != "" {
		return h.folderContents(id)
	}

	folders, err := h.service.Folders()
	if err != nil {
		return serviceErrorResult("Listing", err), nil, nil
	}
	if args.IncludeEmpty != nil && !*args.IncludeEmpty {
		kept := folders[:0]
		for _, f := range folders {
			if f.DocumentCount > 0 {
				kept = append(kept, f)
			}
		}
		folders = kept
	}

	if len(folders) == 0 {
		return textResult("No folders"), nil, nil
	}

	names := make(map[string]string, len(folders))
	for _, f := range folders {
		names[f.ID] = f.Name
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d folders:\n\n", len(folders)))
	sb.WriteString("| ID | Name | Parent | Documents | Created |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, f := range folders {
		parent := "-"
		if f.ParentID != "" {
			parent = f.ParentID
			if n, ok := names[f.ParentID]; ok {
				parent = n
			}
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s |\n",
			f.ID, escapeCell(f.Name), escapeCell(parent), f.DocumentCount, formatDate(f.CreatedAt)))
	}
	return textResult(sb.String()), nil, nil
}

func (h *FoldersHandler) folderContents(id string) (*mcp.CallToolResult, any, error) {
	title := "Documents outside any folder"
	if id != RootFolderID {
		f, err := h.service.Folder(id)
		if err != nil {
			return serviceErrorResult("Lookup", err), nil, nil
		}
		title = fmt.Sprintf("# %s (%s)", f.Name, f.ID)
		if f.Description != "" {
			title += "\n\n" + f.Description
		}
	}

	docs, err := h.service.List(Filter{FolderID: id})
	if err != nil {
		return serviceErrorResult("Listing", err), nil, nil
	}
	if len(docs) == 0 {
		return textResult(title + "\n\nNo documents in this folder"), nil, nil
	}
	return textResult(title + "\n\n" + formatDocumentTable(docs)), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *FoldersHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolListFolders,
		Description: "List library folders with their document counts, or the documents filed in one folder",
	}
}

// SaveFolderArgument defines the fields of a folder being created or changed.
type SaveFolderArgument struct {
	ID          string `json:"id,omitempty" jsonschema_description:"Folder ID; omit to create a new folder"`
	Name        string `json:"name" jsonschema_description:"Folder name"`
	ParentID    string `json:"parent_id,omitempty" jsonschema_description:"Parent folder ID for nested folders"`
	Color       string `json:"color,omitempty" jsonschema_description:"Display color"`
	Description string `json:"description,omitempty" jsonschema_description:"Short description"`
}

// SaveFolderHandler handles the save_folder MCP tool.
type SaveFolderHandler struct {
	service *Service
}

// NewSaveFolderHandler creates a new folder save handler.
func NewSaveFolderHandler(service *Service) *SaveFolderHandler {
	return &SaveFolderHandler{service: service}
}

// Handle creates or updates a folder.
func (h *SaveFolderHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SaveFolderArgument) (*mcp.CallToolResult, any, error) {
	if !h.service.IsReady() {
		return errorResult(notReadyMessage), nil, nil
	}

	f, created, err := h.service.SaveFolder(ctx, FolderInput(args))
	if err != nil {
		return serviceErrorResult("Save", err), nil, nil
	}

	verb := "Updated"
	if created {
		verb = "Created"
	}
	return textResult(fmt.Sprintf("%s folder **%s**\n\n**ID**: %s\n**Documents**: %d\n", verb, f.Name, f.ID, f.DocumentCount)), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *SaveFolderHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolSaveFolder,
		Description: "Create a library folder, or rename, move or describe an existing one",
	}
}

// DeleteFolderArgument defines folder deletion parameters.
type DeleteFolderArgument struct {
	ID string `json:"id" jsonschema_description:"ID of the folder to delete"`
}

// DeleteFolderHandler handles the delete_folder MCP tool.
type DeleteFolderHandler struct {
	service *Service
}

// NewDeleteFolderHandler creates a new folder deletion handler.
func NewDeleteFolderHandler(service *Service) *DeleteFolderHandler {
	return &DeleteFolderHandler{service: service}
}

// Handle deletes a folder, moving its documents to the library root.
func (h *DeleteFolderHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args DeleteFolderArgument) (*mcp.CallToolResult, any, error) {
	if !h.service.IsReady() {
		return errorResult(notReadyMessage), nil, nil
	}

	id := strings.TrimSpace(args.ID)
	if id == "" {
		return errorResult("ID cannot be empty"), nil, nil
	}

	moved, err := h.service.DeleteFolder(ctx, id)
	if err != nil {
		return serviceErrorResult("Delete", err), nil, nil
	}
	return textResult(fmt.Sprintf("Deleted folder %s; %d documents moved to the library root", id, moved)), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *DeleteFolderHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolDeleteFolder,
		Description: "Delete a library folder; its documents move to the library root and subfolders move up one level",
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// folderLabel renders a folder reference for display.
func folderLabel(doc domain.Document) string {
	if doc.FolderID == "" {
		return RootFolderID
	}
	return doc.FolderID
}
