package overlay

import (
	"github.com/recera/pinmap/pkg/dom"
	"github.com/recera/pinmap/pkg/geom"
	"github.com/recera/pinmap/pkg/surface"
)

// Refs is the DOM-node state shared between the overlay wrapper and the
// popup model. The wrapper writes the fields at mount/unmount; the popup
// reads them during geometry computation. Fields are nil once the overlay
// is torn down.
type Refs struct {
	// Container is the popup's positioning box inside the portal
	Container *dom.Node

	// Content is the measured body content area
	Content *dom.Node

	// Tip is the anchor tip element pointing at the target coordinate
	Tip *dom.Node
}

// Popup is the overlay's model: a target coordinate, configuration, and the
// pixel offset and anchor descriptor computed from current geometry.
type Popup struct {
	refs *Refs

	lngLat geom.LngLat
	opts   Options
	offset geom.Point
	anchor geom.Anchor

	// observability counters
	coordWrites uint64
	refreshes   uint64
}

// NewPopup creates a popup model over the shared refs
func NewPopup(refs *Refs, opts Options) *Popup {
	return &Popup{refs: refs, opts: opts.withDefaults()}
}

// Container returns the popup's positioning box, nil after teardown
func (p *Popup) Container() *dom.Node {
	if p.refs == nil {
		return nil
	}
	return p.refs.Container
}

// Content returns the popup's content area, nil after teardown
func (p *Popup) Content() *dom.Node {
	if p.refs == nil {
		return nil
	}
	return p.refs.Content
}

// LngLat returns the currently rendered coordinate
func (p *Popup) LngLat() geom.LngLat {
	return p.lngLat
}

// SetLngLat updates the rendered coordinate
func (p *Popup) SetLngLat(ll geom.LngLat) {
	p.lngLat = ll.OrDefault()
	p.coordWrites++
}

// Options returns the popup's configuration
func (p *Popup) Options() Options {
	return p.opts
}

// SetOptions applies a configuration; unset fields fall back to defaults
func (p *Popup) SetOptions(opts Options) {
	p.opts = opts.withDefaults()
}

// Offset returns the computed pixel offset correcting the popup's
// surface-relative coordinate frame for the surface's page position
func (p *Popup) Offset() geom.Point {
	return p.offset
}

// SetOffset records the computed pixel offset
func (p *Popup) SetOffset(offset geom.Point) {
	p.offset = offset
}

// Anchor returns the current anchor descriptor
func (p *Popup) Anchor() geom.Anchor {
	return p.anchor
}

// SetAnchor records the anchor descriptor and mirrors it onto the popup's
// container and tip so the tip direction matches.
func (p *Popup) SetAnchor(anchor geom.Anchor) {
	p.anchor = anchor
	if p.refs == nil {
		return
	}
	for _, node := range []*dom.Node{p.refs.Container, p.refs.Tip} {
		if node == nil {
			continue
		}
		if anchor == geom.AnchorNone {
			node.RemoveAttr("data-anchor")
		} else {
			node.SetAttr("data-anchor", string(anchor))
		}
	}
}

// Size returns the popup's rendered dimensions, zero until content layout
// has happened
func (p *Popup) Size() geom.Size {
	if p.refs == nil || p.refs.Content == nil {
		return geom.Size{}
	}
	return p.refs.Content.Size()
}

// Pos returns the popup's pixel position relative to the bound surface's
// coordinate frame
func (p *Popup) Pos(s surface.Surface) geom.Point {
	return s.Project(p.lngLat)
}

// Refresh recomputes the container's on-page rectangle from the current
// coordinate, offset and content size. Returns false when geometry is
// unavailable (refs cleared, or content not yet laid out); the caller
// treats that as a silent no-op for this frame.
func (p *Popup) Refresh(s surface.Surface) bool {
	if p.refs == nil || p.refs.Container == nil || p.refs.Content == nil || s == nil {
		return false
	}

	size := p.refs.Content.Size()
	if size.Width == 0 && size.Height == 0 {
		// Content not measured yet; self-heals on the next trigger.
		return false
	}

	pos := p.Pos(s)
	p.refs.Container.SetRect(geom.Rect{
		X:      p.offset.X + pos.X,
		Y:      p.offset.Y + pos.Y,
		Width:  size.Width,
		Height: size.Height,
	})
	p.refs.Content.SetAttr("style", "max-width:"+p.opts.MaxWidth)
	p.refreshes++
	return true
}

// CoordinateWrites returns how many times the rendered coordinate was set
func (p *Popup) CoordinateWrites() uint64 {
	return p.coordWrites
}

// Refreshes returns how many geometry refreshes have completed
func (p *Popup) Refreshes() uint64 {
	return p.refreshes
}
