package tour

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-lexdesk-server/internal/config"
	"github.com/sha1n/mcp-lexdesk-server/internal/metrics"
	"github.com/sha1n/mcp-lexdesk-server/internal/placement"
)

// Tool names
const (
	ToolPlaceTooltip  = "place_tooltip"
	ToolListTourSteps = "list_tour_steps"
)

// RegisterTools registers the tour tools with an MCP server.
func RegisterTools(server *mcp.Server, settings config.TourSettings) {
	steps := DefaultSteps()

	place := NewPlaceHandler(steps, settings)
	mcp.AddTool(server, place.GetToolDefinition(), metrics.Instrument(ToolPlaceTooltip, place.Handle))

	list := NewStepsHandler(steps)
	mcp.AddTool(server, list.GetToolDefinition(), metrics.Instrument(ToolListTourSteps, list.Handle))
}

// RectArgument is an element bounding box.
type RectArgument struct {
	Left   float64 `json:"left" jsonschema_description:"Left edge in pixels"`
	Top    float64 `json:"top" jsonschema_description:"Top edge in pixels"`
	Width  float64 `json:"width" jsonschema_description:"Width in pixels"`
	Height float64 `json:"height" jsonschema_description:"Height in pixels"`
}

// ViewportArgument is the visible window and its scroll offsets.
type ViewportArgument struct {
	Width      float64 `json:"width" jsonschema_description:"Viewport width in pixels"`
	Height     float64 `json:"height" jsonschema_description:"Viewport height in pixels"`
	ScrollTop  float64 `json:"scroll_top,omitempty" jsonschema_description:"Vertical scroll offset of the page"`
	ScrollLeft float64 `json:"scroll_left,omitempty" jsonschema_description:"Horizontal scroll offset of the page"`
}

// PlaceArgument defines tooltip placement parameters.
type PlaceArgument struct {
	StepID            string           `json:"step_id,omitempty" jsonschema_description:"Tour step being shown; supplies the default side and whole-page steps"`
	Side              string           `json:"side,omitempty" jsonschema_description:"Preferred side of the target (top, bottom, left, right)"`
	Target            *RectArgument    `json:"target,omitempty" jsonschema_description:"Bounding box of the highlighted element; omit to centre on the page. A target with zero width and height (such as a hidden element) also centres on the page, wherever it sits"`
	Viewport          ViewportArgument `json:"viewport" jsonschema_description:"The browser viewport"`
	ClientCoordinates bool             `json:"client_coordinates,omitempty" jsonschema_description:"Target is relative to the viewport (getBoundingClientRect) rather than the page"`
	TooltipWidth      float64          `json:"tooltip_width,omitempty" jsonschema_description:"Tooltip width in pixels (defaults to the server setting)"`
	TooltipHeight     float64          `json:"tooltip_height,omitempty" jsonschema_description:"Tooltip height in pixels (defaults to the server setting)"`
	Padding           *float64         `json:"padding,omitempty" jsonschema_description:"Gap between tooltip, target and viewport edges (defaults to the server setting)"`
}

// PlaceResult is the tooltip position returned by place_tooltip.
type PlaceResult struct {
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Side   placement.Side `json:"side"`
	StepID string         `json:"step_id,omitempty"`
}

// PlaceHandler handles the place_tooltip MCP tool.
type PlaceHandler struct {
	steps    Steps
	settings config.TourSettings
}

// NewPlaceHandler creates a new placement handler.
func NewPlaceHandler(steps Steps, settings config.TourSettings) *PlaceHandler {
	return &PlaceHandler{steps: steps, settings: settings}
}

// Handle computes where to draw the tooltip of a tour step.
func (h *PlaceHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args PlaceArgument) (*mcp.CallToolResult, any, error) {
	r, err := h.request(args)
	if err != nil {
		return errorResult(fmt.Sprintf("Invalid placement: %s", err)), nil, nil
	}

	p := r.Place()
	out, err := json.Marshal(PlaceResult{X: p.X, Y: p.Y, Side: r.Resolved(), StepID: strings.TrimSpace(args.StepID)})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode placement: %w", err)
	}
	return textResult(string(out)), nil, nil
}

// request resolves the arguments into a placement request.
// The side is the explicit side, else the step's side, else bottom.
func (h *PlaceHandler) request(args PlaceArgument) (placement.Request, error) {
	vp := placement.Viewport{
		Width:      args.Viewport.Width,
		Height:     args.Viewport.Height,
		ScrollTop:  args.Viewport.ScrollTop,
		ScrollLeft: args.Viewport.ScrollLeft,
	}
	if vp.Width <= 0 || vp.Height <= 0 {
		return placement.Request{}, fmt.Errorf("viewport width and height must be positive")
	}

	r := placement.Request{
		Side:          placement.SideBottom,
		Viewport:      vp,
		TooltipWidth:  h.settings.TooltipWidth,
		TooltipHeight: h.settings.TooltipHeight,
		Padding:       h.settings.Padding,
	}
	if args.TooltipWidth != 0 {
		r.TooltipWidth = args.TooltipWidth
	}
	if args.TooltipHeight != 0 {
		r.TooltipHeight = args.TooltipHeight
	}
	if r.TooltipWidth <= 0 || r.TooltipHeight <= 0 {
		return placement.Request{}, fmt.Errorf("tooltip width and height must be positive")
	}
	if args.Padding != nil {
		if *args.Padding < 0 {
			return placement.Request{}, fmt.Errorf("padding cannot be negative")
		}
		r.Padding = *args.Padding
	}

	wholePage := args.Target == nil
	if id := strings.TrimSpace(args.StepID); id != "" {
		step, ok := h.steps.Find(id)
		if !ok {
			return placement.Request{}, fmt.Errorf("unknown tour step: %s", id)
		}
		r.Side = step.Side
		wholePage = wholePage || step.IsWholePage()
	}

	if args.Side != "" {
		side, err := placement.ParseSide(args.Side)
		if err != nil {
			return placement.Request{}, fmt.Errorf("invalid side: %s", args.Side)
		}
		r.Side = side
	}

	if wholePage {
		r.Target = placement.WholePage
		return r, nil
	}

	r.Target = placement.Rect{
		Left:   args.Target.Left,
		Top:    args.Target.Top,
		Width:  args.Target.Width,
		Height: args.Target.Height,
	}
	if args.ClientCoordinates {
		r.Target = placement.ClientToPage(r.Target, vp)
	}
	return r, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *PlaceHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolPlaceTooltip,
		Description: "Compute the top-left position of a product tour tooltip next to a highlighted element, keeping it inside the viewport. Returns JSON {x, y, side, step_id}",
	}
}

// StepsArgument defines tour step listing parameters.
type StepsArgument struct {
	StepID string `json:"step_id,omitempty" jsonschema_description:"Show a single step with its previous and next step IDs"`
}

// StepsHandler handles the list_tour_steps MCP tool.
type StepsHandler struct {
	steps Steps
}

// NewStepsHandler creates a new steps handler.
func NewStepsHandler(steps Steps) *StepsHandler {
	return &StepsHandler{steps: steps}
}

// Handle lists the tour, or describes one step.
func (h *StepsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StepsArgument) (*mcp.CallToolResult, any, error) {
	id := strings.TrimSpace(args.StepID)
	if id == "" {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Product tour (%d steps):\n\n", len(h.steps)))
		for i, step := range h.steps {
			sb.WriteString(fmt.Sprintf("%d. **%s** (%s): %s\n", i+1, step.Title, step.ID, step.Description))
		}
		return textResult(sb.String()), nil, nil
	}

	step, ok := h.steps.Find(id)
	if !ok {
		return errorResult(fmt.Sprintf("Unknown tour step: %s", id)), nil, nil
	}
	prev, _ := h.steps.Prev(id)
	next, _ := h.steps.Next(id)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", step.Title))
	sb.WriteString(fmt.Sprintf("**ID**: %s (step %d of %d)\n", step.ID, h.steps.Index(id)+1, len(h.steps)))
	sb.WriteString(fmt.Sprintf("**Target**: %s\n", step.Target))
	sb.WriteString(fmt.Sprintf("**Side**: %s\n", step.Side))
	if step.Action != "" {
		sb.WriteString(fmt.Sprintf("**Action**: %s\n", step.Action))
	}
	sb.WriteString(fmt.Sprintf("**Delay**: %s\n", step.Delay))
	sb.WriteString(fmt.Sprintf("**Previous**: %s | **Next**: %s\n\n", prev.ID, next.ID))
	sb.WriteString(step.Description)
	sb.WriteString("\n")

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *StepsHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolListTourSteps,
		Description: "List the product tour steps, or show one step with its target element and neighbours",
	}
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
