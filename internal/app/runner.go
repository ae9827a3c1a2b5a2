package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-lexdesk-server/internal/config"
	"github.com/sha1n/mcp-lexdesk-server/internal/library"
	mcputil "github.com/sha1n/mcp-lexdesk-server/internal/mcp"
	"github.com/spf13/pflag"
)

// ServerName is the MCP implementation name reported to clients
const ServerName = "lexdesk-mcp"

// RunParams contains dependencies for the run function
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartSSEServer    func(*mcp.Server, *config.Settings) error
	CreateServer      func(*config.Settings) (*mcp.Server, func(), error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		StartSSEServer: StartSSEServer,
		CreateServer:   CreateMCPServer,
	}
}

// RunWithDeps executes the server with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Always log to stderr; stdout carries the stdio transport
	slog.SetDefault(config.NewLogger(os.Stderr, settings))

	slog.Info("Starting MCP LexDesk server", "version", version)
	config.Log(settings)

	mcpServer, cleanup, err := params.CreateServer(settings)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if settings.Transport == config.TransportStdio {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return mcpServer.Run(ctx, transport)
	}

	slog.Info("Starting SSE server", "host", settings.Host, "port", settings.Port)
	return params.StartSSEServer(mcpServer, settings)
}

// CreateMCPServer creates the MCP server with registered tools.
// A library that fails to initialize is logged and left out; the tour tools are always available.
func CreateMCPServer(settings *config.Settings) (*mcp.Server, func(), error) {
	var librarySvc *library.Service
	var cleanup func()

	if settings.Library.Enabled {
		svc, err := library.NewService(&settings.Library)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create library service: %w", err)
		}
		librarySvc = svc

		// Initialize in background context (not tied to request context)
		if err := svc.Initialize(context.Background()); err != nil {
			slog.Error("Library initialization failed", "error", err)
			if closeErr := svc.Close(); closeErr != nil {
				slog.Error("Failed to close library service", "error", closeErr)
			}
			librarySvc = nil
		} else {
			cleanup = func() {
				if err := svc.Close(); err != nil {
					slog.Error("Failed to close library service", "error", err)
				}
			}
		}
	}

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:    ServerName,
		Version: "1.0.0",
		Library: librarySvc,
		Tour:    settings.Tour,
	})

	return server, cleanup, nil
}
