// Package overlay keeps a popup visually pinned to a geographic coordinate
// on a pannable, zoomable map surface. The synchronizer recomputes the
// popup's pixel offset and anchor side on every map movement or input
// change, coalescing bursts of triggers into one recomputation per frame,
// and tears down cleanly when unmounted.
package overlay

import (
	"sync"
	"sync/atomic"

	"github.com/recera/pinmap/pkg/dom"
	"github.com/recera/pinmap/pkg/frame"
	"github.com/recera/pinmap/pkg/geom"
	rdom "github.com/recera/pinmap/pkg/renderer/dom"
	"github.com/recera/pinmap/pkg/surface"
	"github.com/recera/pinmap/pkg/vdom"
)

// BodyFunc renders the popup body. The supplied requestUpdate callback lets
// the content ask for re-synchronization after its own size changes.
type BodyFunc func(requestUpdate func()) *vdom.VNode

// Overlay synchronizes a popup with a map surface. Its lifecycle is
// Unmounted -> Mounted -> Unmounted; there is no error state, geometry
// failures degrade to a best-effort anchor.
type Overlay struct {
	mu   sync.Mutex
	doc  *dom.Document
	loop *frame.Loop

	mounted atomic.Bool
	task    atomic.Pointer[frame.Task]

	surface        surface.Surface
	cancelMove     func()
	cancelDestroy  func()
	cancelDocClick func()

	portal  *dom.Node
	refs    *Refs
	applier *rdom.Applier
	popup   *Popup

	target  geom.LngLat
	opts    Options
	body    BodyFunc
	onClose func()
}

// New creates an overlay rendering into doc and scheduling on loop
func New(doc *dom.Document, loop *frame.Loop) *Overlay {
	return &Overlay{doc: doc, loop: loop}
}

// Popup returns the popup model, nil while unmounted
func (o *Overlay) Popup() *Popup {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.popup
}

// Portal returns the portal node, nil while unmounted
func (o *Overlay) Portal() *dom.Node {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.portal
}

// Mounted reports whether the overlay is mounted
func (o *Overlay) Mounted() bool {
	return o.mounted.Load()
}

// OnClose sets a callback invoked after the overlay closes itself (close
// button, or a click outside with CloseOnClick set).
func (o *Overlay) OnClose(fn func()) {
	o.mu.Lock()
	o.onClose = fn
	o.mu.Unlock()
}

// Mount creates the portal node, attaches it to the document body, creates
// the popup model with defaults overridden by opts, binds the surface's
// move/destroy signals and performs an initial synchronize. Mounting an
// already mounted overlay is a no-op.
func (o *Overlay) Mount(s surface.Surface, coord geom.LngLat, opts Options, body BodyFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.mounted.Load() || s == nil {
		return
	}

	portal := o.doc.CreateElement("div")
	portal.SetAttr("class", "pinmap-portal")
	o.doc.Body().AppendChild(portal)

	container := o.doc.CreateElement("div")
	container.SetAttr("class", "pinmap-popup")
	tip := o.doc.CreateElement("div")
	tip.SetAttr("class", "pinmap-popup-tip")
	content := o.doc.CreateElement("div")
	content.SetAttr("class", "pinmap-popup-content")
	container.AppendChild(tip)
	container.AppendChild(content)
	portal.AppendChild(container)

	o.portal = portal
	o.refs = &Refs{Container: container, Content: content, Tip: tip}
	o.applier = rdom.NewApplier(content)
	o.opts = opts.withDefaults()
	o.popup = NewPopup(o.refs, o.opts)
	o.target = coord
	o.body = body

	o.task.Store(o.loop.Register(o.step))
	o.bindSurfaceLocked(s)
	o.mounted.Store(true)

	o.renderBodyLocked()
	o.requestSync()
}

// Update applies new inputs: surface, coordinate, configuration and body
// content (nil keeps the current body). A changed surface is unbound before
// the new one is bound, so exactly one surface is subscribed at any time.
// Always triggers a synchronize.
func (o *Overlay) Update(s surface.Surface, coord geom.LngLat, opts Options, body BodyFunc) {
	o.mu.Lock()

	if !o.mounted.Load() {
		o.mu.Unlock()
		return
	}

	if s != nil && s != o.surface {
		o.unbindSurfaceLocked()
		o.bindSurfaceLocked(s)
	}
	o.target = coord
	o.opts = opts.withDefaults()
	if body != nil {
		o.body = body
	}
	o.renderBodyLocked()
	o.mu.Unlock()

	o.Synchronize()
}

// Unmount unbinds the surface, clears the shared DOM references without
// destroying externally owned nodes, and removes the portal from its
// parent. Safe to call when already torn down.
func (o *Overlay) Unmount() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.unmountLocked()
}

func (o *Overlay) unmountLocked() {
	if !o.mounted.Load() {
		return
	}
	o.mounted.Store(false)

	o.unbindSurfaceLocked()

	if task := o.task.Swap(nil); task != nil {
		o.loop.Remove(task)
	}

	// Clear the shared refs; the popup model must stop reading geometry.
	if o.refs != nil {
		o.refs.Container = nil
		o.refs.Content = nil
		o.refs.Tip = nil
	}
	o.refs = nil
	o.applier = nil
	o.popup = nil
	o.body = nil

	if o.portal != nil {
		o.portal.Detach()
		o.portal = nil
	}
}

// Close unmounts the overlay and fires the OnClose callback
func (o *Overlay) Close() {
	o.mu.Lock()
	fn := o.onClose
	o.unmountLocked()
	o.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Synchronize schedules a geometry recomputation on the next frame. Calls
// arriving before the frame fires coalesce into a single recomputation.
// Safe to call from popup content and surface callbacks at any time; a
// synchronize scheduled just before teardown is discarded by the guard at
// the top of the frame step.
func (o *Overlay) Synchronize() {
	o.requestSync()
}

func (o *Overlay) requestSync() {
	if !o.mounted.Load() {
		return
	}
	if task := o.task.Load(); task != nil {
		o.loop.Request(task)
	}
}

// bindSurfaceLocked subscribes to the surface's move/destroy signals.
// Callers must hold o.mu and have unbound any previous surface. OnDestroy
// fires synchronously when the surface is already dead, so the callback
// defers to a direct unbind for that case instead of re-locking.
func (o *Overlay) bindSurfaceLocked(s surface.Surface) {
	o.surface = s
	o.cancelMove = s.OnMove(o.Synchronize)

	var binding atomic.Bool
	binding.Store(true)
	deadOnArrival := false
	o.cancelDestroy = s.OnDestroy(func() {
		if binding.Load() {
			deadOnArrival = true
			return
		}
		o.handleSurfaceDestroyed()
	})
	binding.Store(false)
	if deadOnArrival {
		o.unbindSurfaceLocked()
	}
}

func (o *Overlay) unbindSurfaceLocked() {
	if o.cancelMove != nil {
		o.cancelMove()
		o.cancelMove = nil
	}
	if o.cancelDestroy != nil {
		o.cancelDestroy()
		o.cancelDestroy = nil
	}
	if o.cancelDocClick != nil {
		o.cancelDocClick()
		o.cancelDocClick = nil
	}
	o.surface = nil
}

// handleSurfaceDestroyed auto-unbinds when the bound surface is torn down;
// the overlay stays mounted and rebinds on the next Update with a live
// surface.
func (o *Overlay) handleSurfaceDestroyed() {
	o.mu.Lock()
	o.unbindSurfaceLocked()
	o.mu.Unlock()
}

// renderBodyLocked projects the popup body into the content node, wrapping
// it with a close button when configured. Callers must hold o.mu.
func (o *Overlay) renderBodyLocked() {
	if o.applier == nil {
		return
	}

	kids := make([]*vdom.VNode, 0, 2)
	if o.opts.CloseButton {
		kids = append(kids, vdom.Element("button", vdom.Props{
			"class":   "pinmap-popup-close",
			"onClick": func() { o.Close() },
		}, vdom.Text("×")))
	}
	if o.body != nil {
		if content := o.body(o.Synchronize); content != nil {
			kids = append(kids, content)
		}
	}
	o.applier.Render(vdom.Fragment(kids...))

	o.syncDocClickLocked()
}

// syncDocClickLocked keeps the document-level click binding in step with
// the CloseOnClick option.
func (o *Overlay) syncDocClickLocked() {
	if o.opts.CloseOnClick && o.cancelDocClick == nil {
		container := o.refs.Container
		o.cancelDocClick = o.doc.OnClick(func(target *dom.Node) {
			if container.Contains(target) {
				return
			}
			o.Close()
		})
	} else if !o.opts.CloseOnClick && o.cancelDocClick != nil {
		o.cancelDocClick()
		o.cancelDocClick = nil
	}
}

// step is the per-frame synchronize body. It aborts silently when the
// overlay was unmounted or its DOM references are gone, guarding against a
// synchronize scheduled just before teardown.
func (o *Overlay) step() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.mounted.Load() || o.refs == nil || o.refs.Container == nil || o.refs.Content == nil {
		return
	}
	if o.surface == nil {
		// Surface destroyed while a frame was pending; wait for a rebind.
		return
	}

	o.popup.SetOffset(geom.CalcOffset(o.surface.Bounds(), o.doc.Scroll()))
	o.popup.SetAnchor(geom.AnchorNone)
	o.popup.SetOptions(o.opts)

	// Update the rendered coordinate when it changed (raw value compare);
	// otherwise force a geometry refresh so layout catches up with viewport
	// movement even absent a coordinate change.
	target := o.target.OrDefault()
	if !target.Equal(o.popup.LngLat()) {
		o.popup.SetLngLat(target)
	}
	if !o.popup.Refresh(o.surface) {
		// Missing measurements; retry on the next trigger.
		return
	}

	// Anchor only after geometry is current for this coordinate and
	// viewport, then a final refresh so the tip direction matches.
	anchor := geom.CalcAnchor(
		o.popup.Pos(o.surface),
		o.popup.Size(),
		o.surface.Bounds(),
		o.doc.Viewport(),
	)
	o.popup.SetAnchor(anchor)
	o.popup.Refresh(o.surface)
}
