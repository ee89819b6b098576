// Package pinmap is the embedding facade: one type tying together the
// document, frame loop, map surface and overlay, plus shortcuts for
// building popup content.
package pinmap

import (
	"fmt"

	"github.com/recera/pinmap/pkg/dom"
	"github.com/recera/pinmap/pkg/frame"
	"github.com/recera/pinmap/pkg/geom"
	"github.com/recera/pinmap/pkg/overlay"
	"github.com/recera/pinmap/pkg/reactive"
	"github.com/recera/pinmap/pkg/surface"
	"github.com/recera/pinmap/pkg/vdom"
)

// App owns one document with a map surface and at most one popup overlay
type App struct {
	doc     *dom.Document
	loop    *frame.Loop
	surface *surface.Map
	overlay *overlay.Overlay
}

// New creates an app with a map filling the given viewport
func New(viewport geom.Size, center geom.LngLat, zoom float64) *App {
	doc := dom.NewDocument(viewport)
	loop := frame.NewLoop()
	m := surface.NewMap(doc, geom.Rect{Width: viewport.Width, Height: viewport.Height}, center, zoom)

	return &App{
		doc:     doc,
		loop:    loop,
		surface: m,
		overlay: overlay.New(doc, loop),
	}
}

// Document returns the app's document
func (a *App) Document() *dom.Document { return a.doc }

// Loop returns the app's frame loop
func (a *App) Loop() *frame.Loop { return a.loop }

// Map returns the app's map surface
func (a *App) Map() *surface.Map { return a.surface }

// Overlay returns the app's popup overlay
func (a *App) Overlay() *overlay.Overlay { return a.overlay }

// Run starts the frame loop; Stop shuts it down
func (a *App) Run()  { a.loop.Start() }
func (a *App) Stop() { a.loop.Stop() }

// OpenPopup pins a popup to coord. An already open popup is re-targeted.
func (a *App) OpenPopup(coord geom.LngLat, opts overlay.Options, body overlay.BodyFunc) {
	if a.overlay.Mounted() {
		a.overlay.Update(a.surface, coord, opts, body)
		return
	}
	a.overlay.Mount(a.surface, coord, opts, body)
}

// ClosePopup removes the popup, if any
func (a *App) ClosePopup() {
	a.overlay.Unmount()
}

// Element shortcuts for popup content
var (
	Div = func(props vdom.Props, children ...*vdom.VNode) *vdom.VNode {
		return vdom.Element("div", props, children...)
	}
	Span = func(props vdom.Props, children ...*vdom.VNode) *vdom.VNode {
		return vdom.Element("span", props, children...)
	}
	P = func(props vdom.Props, children ...*vdom.VNode) *vdom.VNode {
		return vdom.Element("p", props, children...)
	}
	H3 = func(props vdom.Props, children ...*vdom.VNode) *vdom.VNode {
		return vdom.Element("h3", props, children...)
	}
	Button = func(props vdom.Props, children ...*vdom.VNode) *vdom.VNode {
		return vdom.Element("button", props, children...)
	}
	Img = func(props vdom.Props, children ...*vdom.VNode) *vdom.VNode {
		return vdom.Element("img", props, children...)
	}
	A = func(props vdom.Props, children ...*vdom.VNode) *vdom.VNode {
		return vdom.Element("a", props, children...)
	}
	Text     = vdom.Text
	Fragment = vdom.Fragment
)

// Props is a convenience alias
type Props = vdom.Props

// State creates a reactive state cell
func State[T any](initial T) *reactive.State[T] {
	return reactive.NewState(initial)
}

// Batch coalesces state notifications from fn into one round
func Batch(fn func()) {
	reactive.RunBatch(fn)
}

// Logging helpers
func Logf(format string, args ...interface{}) {
	fmt.Printf("[pinmap] "+format+"\n", args...)
}

func Errorf(format string, args ...interface{}) {
	fmt.Printf("[pinmap error] "+format+"\n", args...)
}
