package surface

import (
	"math"
	"sync"

	"github.com/recera/pinmap/pkg/dom"
	"github.com/recera/pinmap/pkg/geom"
	"github.com/recera/pinmap/pkg/reactive"
)

// tileSize is the world extent in pixels at zoom 0
const tileSize = 256

// Viewport is a map surface's visible state
type Viewport struct {
	Center geom.LngLat
	Zoom   float64
	Size   geom.Size
}

// Map is a concrete Surface: an equirectangular viewport around a center
// coordinate. Pan/zoom/resize mutations emit the "moved" signal; Destroy
// emits "destroyed" exactly once.
type Map struct {
	mu        sync.Mutex
	container *dom.Node
	viewport  *reactive.State[Viewport]

	destroyMu        sync.Mutex
	destroyed        bool
	destroyListeners map[uint64]func()
	nextDestroyID    uint64
}

// NewMap creates a map surface whose container occupies bounds within the
// document, centered on center at the given zoom level.
func NewMap(doc *dom.Document, bounds geom.Rect, center geom.LngLat, zoom float64) *Map {
	container := doc.CreateElement("div")
	container.SetAttr("class", "map-surface")
	container.SetRect(bounds)
	doc.Body().AppendChild(container)

	return &Map{
		container: container,
		viewport: reactive.NewState(Viewport{
			Center: center.OrDefault(),
			Zoom:   zoom,
			Size:   geom.Size{Width: bounds.Width, Height: bounds.Height},
		}),
		destroyListeners: make(map[uint64]func()),
	}
}

// Container returns the surface's DOM container
func (m *Map) Container() *dom.Node {
	return m.container
}

// Bounds returns the container's bounding rectangle within the viewport
func (m *Map) Bounds() geom.Rect {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.container.Rect()
}

// Viewport returns the current visible state
func (m *Map) Viewport() Viewport {
	return m.viewport.Get()
}

// scale returns pixels per world unit at the given zoom
func scale(zoom float64) float64 {
	return tileSize * math.Pow(2, zoom)
}

// Project converts a geographic coordinate to a pixel position relative to
// the surface's own coordinate frame, (0,0) at the container's top-left.
func (m *Map) Project(ll geom.LngLat) geom.Point {
	vp := m.viewport.Get()
	world := scale(vp.Zoom)

	x := (ll.Lng-vp.Center.Lng)/360*world + vp.Size.Width/2
	// Screen Y grows downward while latitude grows upward.
	y := (vp.Center.Lat-ll.Lat)/180*world/2 + vp.Size.Height/2

	return geom.Point{X: x, Y: y}
}

// Unproject converts a surface-local pixel position back to a coordinate
func (m *Map) Unproject(p geom.Point) geom.LngLat {
	vp := m.viewport.Get()
	world := scale(vp.Zoom)

	lng := vp.Center.Lng + (p.X-vp.Size.Width/2)*360/world
	lat := vp.Center.Lat - (p.Y-vp.Size.Height/2)*180*2/world

	return geom.LngLat{Lng: lng, Lat: lat}.Wrap()
}

// SetCenter moves the viewport center
func (m *Map) SetCenter(center geom.LngLat) {
	m.viewport.Update(func(vp Viewport) Viewport {
		vp.Center = center.OrDefault()
		return vp
	})
}

// PanBy shifts the viewport by a pixel delta
func (m *Map) PanBy(delta geom.Point) {
	m.viewport.Update(func(vp Viewport) Viewport {
		world := scale(vp.Zoom)
		vp.Center = geom.LngLat{
			Lng: vp.Center.Lng + delta.X*360/world,
			Lat: vp.Center.Lat - delta.Y*180*2/world,
		}.Wrap()
		return vp
	})
}

// SetZoom sets the zoom level, clamped to [0, 22]
func (m *Map) SetZoom(zoom float64) {
	m.viewport.Update(func(vp Viewport) Viewport {
		vp.Zoom = math.Max(0, math.Min(22, zoom))
		return vp
	})
}

// ZoomBy adjusts the zoom level by a delta
func (m *Map) ZoomBy(delta float64) {
	vp := m.viewport.Get()
	m.SetZoom(vp.Zoom + delta)
}

// SetBounds moves/resizes the surface within the page
func (m *Map) SetBounds(bounds geom.Rect) {
	m.mu.Lock()
	m.container.SetRect(bounds)
	m.mu.Unlock()

	m.viewport.Update(func(vp Viewport) Viewport {
		vp.Size = geom.Size{Width: bounds.Width, Height: bounds.Height}
		return vp
	})
}

// OnMove subscribes to the "moved" signal
func (m *Map) OnMove(fn func()) (cancel func()) {
	return m.viewport.Watch(func(Viewport) { fn() })
}

// MoveListenerCount returns the number of active move subscriptions
func (m *Map) MoveListenerCount() int {
	return m.viewport.WatcherCount()
}

// OnDestroy subscribes to the "destroyed" signal. Subscribing to an already
// destroyed surface fires immediately.
func (m *Map) OnDestroy(fn func()) (cancel func()) {
	m.destroyMu.Lock()
	if m.destroyed {
		m.destroyMu.Unlock()
		fn()
		return func() {}
	}
	id := m.nextDestroyID
	m.nextDestroyID++
	m.destroyListeners[id] = fn
	m.destroyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.destroyMu.Lock()
			delete(m.destroyListeners, id)
			m.destroyMu.Unlock()
		})
	}
}

// Destroyed reports whether the surface was torn down
func (m *Map) Destroyed() bool {
	m.destroyMu.Lock()
	defer m.destroyMu.Unlock()
	return m.destroyed
}

// Destroy tears the surface down: removes its container from the document
// and fires the "destroyed" signal. Subsequent calls are no-ops.
func (m *Map) Destroy() {
	m.destroyMu.Lock()
	if m.destroyed {
		m.destroyMu.Unlock()
		return
	}
	m.destroyed = true
	listeners := make([]func(), 0, len(m.destroyListeners))
	for _, fn := range m.destroyListeners {
		listeners = append(listeners, fn)
	}
	m.destroyListeners = nil
	m.destroyMu.Unlock()

	m.container.Detach()
	for _, fn := range listeners {
		fn()
	}
}
