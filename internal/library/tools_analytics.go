package library

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AnalyticsArgument takes no parameters.
type AnalyticsArgument struct{}

// AnalyticsHandler handles the library_analytics MCP tool.
type AnalyticsHandler struct {
	service *Service
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(service *Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Handle reports library statistics.
func (h *AnalyticsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, _ AnalyticsArgument) (*mcp.CallToolResult, any, error) {
	a, err := h.service.Analytics()
	if err != nil {
		return serviceErrorResult("Analytics", err), nil, nil
	}

	var sb strings.Builder
	sb.WriteString("# Library analytics\n\n")
	sb.WriteString(fmt.Sprintf("**Total documents**: %d\n", a.TotalDocuments))
	sb.WriteString(fmt.Sprintf("**Documents this month**: %d\n", a.DocumentsThisMonth))
	sb.WriteString(fmt.Sprintf("**Questions asked**: %d (%d this month)\n", a.TotalQueries, a.QueriesThisMonth))
	sb.WriteString(fmt.Sprintf("**Risk alerts**: %d\n", a.RiskAlerts))
	sb.WriteString(fmt.Sprintf("**Estimated hours saved**: %d\n", a.HoursSaved))

	if len(a.TopDocumentTypes) > 0 {
		sb.WriteString("\n## Top document types\n")
		for _, tc := range a.TopDocumentTypes {
			sb.WriteString(fmt.Sprintf("- %s: %d\n", tc.Type, tc.Count))
		}
	}

	if len(a.ByStatus) > 0 {
		sb.WriteString("\n## By status\n")
		statuses := make([]string, 0, len(a.ByStatus))
		for s := range a.ByStatus {
			statuses = append(statuses, s)
		}
		slices.Sort(statuses)
		for _, s := range statuses {
			sb.WriteString(fmt.Sprintf("- %s: %d\n", s, a.ByStatus[s]))
		}
	}

	if len(a.HighRiskDocuments) > 0 {
		sb.WriteString("\n## High priority risks\n")
		for _, d := range a.HighRiskDocuments {
			sb.WriteString(fmt.Sprintf("- %s (%s): %d risks identified\n", d.Name, d.ID, d.Risks))
		}
	}

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *AnalyticsHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolLibraryAnalytics,
		Description: "Summarize the library: document counts, risk alerts, top document types and estimated review hours saved",
	}
}
