package placement

// Request bundles the inputs of a single placement.
type Request struct {
	Target        Rect
	Side          Side
	Viewport      Viewport
	TooltipWidth  float64
	TooltipHeight float64
	Padding       float64
}

// Place returns the tooltip position for r. See Place.
func (r Request) Place() Point {
	return Place(r.Target, r.Side, r.Viewport, r.TooltipWidth, r.TooltipHeight, r.Padding)
}

// Resolved returns the side the tooltip ends up on after the overflow check.
func (r Request) Resolved() Side {
	if r.Target.IsWholePage() {
		return r.Side
	}
	_, side := anchor(r.Target, r.Side, r.Viewport, r.TooltipWidth, r.TooltipHeight, r.Padding)
	return side
}

// Place computes the top-left corner of a tooltipWidth x tooltipHeight tooltip
// anchored to the given side of target.
//
// The tooltip is offset from the target edge by padding and centred on the
// other axis. If it overflows the viewport on the requested side it is moved
// once to the opposite side. The result is then clamped to
// [padding, vp.Width-tooltipWidth-padding] horizontally and
// [vp.ScrollTop+padding, vp.ScrollTop+vp.Height-tooltipHeight-padding]
// vertically. A whole-page target returns the viewport centre.
func Place(target Rect, side Side, vp Viewport, tooltipWidth, tooltipHeight, padding float64) Point {
	if target.IsWholePage() {
		return Point{X: vp.Width / 2, Y: vp.Height / 2}
	}

	p, _ := anchor(target, side, vp, tooltipWidth, tooltipHeight, padding)

	p.X = Clamp(p.X, padding, vp.Width-tooltipWidth-padding)
	p.Y = Clamp(p.Y, vp.ScrollTop+padding, vp.ScrollTop+vp.Height-tooltipHeight-padding)
	return p
}

// anchor places the tooltip on side, flipping at most once when it overflows.
func anchor(target Rect, side Side, vp Viewport, w, h, padding float64) (Point, Side) {
	if side != SideTop && side != SideLeft && side != SideRight {
		side = SideBottom
	}

	p := naive(target, side, w, h, padding)

	var overflow bool
	switch side {
	case SideRight:
		overflow = p.X+w > vp.Width-padding
	case SideLeft:
		overflow = p.X < padding
	case SideTop:
		overflow = p.Y < vp.ScrollTop+padding
	case SideBottom:
		overflow = p.Y+h > vp.ScrollTop+vp.Height-padding
	}

	if overflow {
		side = side.Opposite()
		p = naive(target, side, w, h, padding)
	}
	return p, side
}

func naive(target Rect, side Side, w, h, padding float64) Point {
	switch side {
	case SideRight:
		return Point{X: target.Right() + padding, Y: target.Top + target.Height/2 - h/2}
	case SideLeft:
		return Point{X: target.Left - w - padding, Y: target.Top + target.Height/2 - h/2}
	case SideTop:
		return Point{X: target.Left + target.Width/2 - w/2, Y: target.Top - h - padding}
	default:
		return Point{X: target.Left + target.Width/2 - w/2, Y: target.Bottom() + padding}
	}
}
