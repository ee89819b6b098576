package geom

// Anchor describes which edge(s) of a popup touch its reference point,
// chosen to keep the popup on-screen. It is one of exactly nine values:
// "", "top", "bottom", "left", "right", "top-left", "top-right",
// "bottom-left" or "bottom-right".
type Anchor string

// The nine possible anchor descriptors
const (
	AnchorNone        Anchor = ""
	AnchorTop         Anchor = "top"
	AnchorBottom      Anchor = "bottom"
	AnchorLeft        Anchor = "left"
	AnchorRight       Anchor = "right"
	AnchorTopLeft     Anchor = "top-left"
	AnchorTopRight    Anchor = "top-right"
	AnchorBottomLeft  Anchor = "bottom-left"
	AnchorBottomRight Anchor = "bottom-right"
)

// joinAnchor concatenates the vertical tag (if any) with the horizontal tag
// (if any), vertical first, separated by a single dash.
func joinAnchor(vertical, horizontal string) Anchor {
	switch {
	case vertical != "" && horizontal != "":
		return Anchor(vertical + "-" + horizontal)
	case vertical != "":
		return Anchor(vertical)
	default:
		return Anchor(horizontal)
	}
}

// CalcAnchor chooses an anchor descriptor for a popup.
//
// pos is the popup's pixel position relative to the surface's own coordinate
// frame, size its rendered dimensions, surfaceRect the surface's bounding
// rectangle within the global viewport, and viewport the global client
// dimensions. The vertical tag is "bottom" when placing the popup downward
// would overflow the viewport bottom while upward placement stays on-screen,
// and "top" in the mirrored case; the horizontal tag follows the same logic
// against the viewport width. Degenerate sizing (both placements overflow,
// or neither does) yields no tag on that axis.
//
// This is heuristic edge avoidance, not guaranteed non-overlap: a popup
// larger than the viewport degrades to the default anchor.
func CalcAnchor(pos Point, size Size, surfaceRect Rect, viewport Size) Anchor {
	x := surfaceRect.Left() + pos.X
	y := surfaceRect.Top() + pos.Y

	var vertical, horizontal string

	downOverflows := y+size.Height > viewport.Height
	upOverflows := y-size.Height < 0
	if downOverflows && !upOverflows {
		vertical = "bottom"
	} else if !downOverflows && upOverflows {
		vertical = "top"
	}

	rightOverflows := x+size.Width > viewport.Width
	leftOverflows := x-size.Width < 0
	if rightOverflows && !leftOverflows {
		horizontal = "right"
	} else if !rightOverflows && leftOverflows {
		horizontal = "left"
	}

	return joinAnchor(vertical, horizontal)
}

// Vertical returns the vertical component of the anchor, if any
func (a Anchor) Vertical() string {
	switch a {
	case AnchorTop, AnchorTopLeft, AnchorTopRight:
		return "top"
	case AnchorBottom, AnchorBottomLeft, AnchorBottomRight:
		return "bottom"
	}
	return ""
}

// Horizontal returns the horizontal component of the anchor, if any
func (a Anchor) Horizontal() string {
	switch a {
	case AnchorLeft, AnchorTopLeft, AnchorBottomLeft:
		return "left"
	case AnchorRight, AnchorTopRight, AnchorBottomRight:
		return "right"
	}
	return ""
}
