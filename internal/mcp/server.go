package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-lexdesk-server/internal/config"
	"github.com/sha1n/mcp-lexdesk-server/internal/library"
	"github.com/sha1n/mcp-lexdesk-server/internal/tour"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name    string
	Version string

	// Library is optional. Library tools are registered only when it is set.
	Library *library.Service

	Tour config.TourSettings
}

// CreateServer creates and configures the MCP server
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	tour.RegisterTools(s, cfg.Tour)

	if cfg.Library != nil {
		library.RegisterTools(s, cfg.Library)
	}

	return s
}
