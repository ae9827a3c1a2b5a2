// Package placement computes where an overlay tooltip should be drawn next to
// a target element so that it stays inside the visible viewport.
package placement

import (
	"fmt"
	"strings"
)

// Side is the side of the target the tooltip is anchored to.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// ParseSide parses a side name (case-insensitive).
func ParseSide(s string) (Side, error) {
	switch side := Side(strings.ToLower(strings.TrimSpace(s))); side {
	case SideTop, SideBottom, SideLeft, SideRight:
		return side, nil
	default:
		return "", fmt.Errorf("invalid side %q: must be one of top, bottom, left, right", s)
	}
}

// Opposite returns the side across the target. Unknown sides map to top,
// the opposite of the default side.
func (s Side) Opposite() Side {
	switch s {
	case SideTop:
		return SideBottom
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return SideTop
	}
}

// Rect is an element's bounding box in page coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// WholePage is the target used when there is no anchor element.
var WholePage = Rect{}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// IsWholePage reports whether r is the zero-size whole-page sentinel.
// Any rect with zero width and height counts, regardless of its position.
func (r Rect) IsWholePage() bool {
	return r.Width == 0 && r.Height == 0
}

// Viewport is the visible window and its scroll offsets.
type Viewport struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	ScrollTop  float64 `json:"scroll_top"`
	ScrollLeft float64 `json:"scroll_left"`
}

// Point is the top-left corner of the tooltip.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ClientToPage converts a viewport-relative bounding box into page coordinates.
func ClientToPage(r Rect, vp Viewport) Rect {
	r.Left += vp.ScrollLeft
	r.Top += vp.ScrollTop
	return r
}

// Clamp limits v to [lo, hi]. When the range is inverted the lower bound wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
