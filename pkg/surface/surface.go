// Package surface defines the map-surface collaborator the overlay tracks:
// a pannable, zoomable viewport that projects geographic coordinates to
// surface-local pixels and signals movement and destruction.
package surface

import (
	"github.com/recera/pinmap/pkg/dom"
	"github.com/recera/pinmap/pkg/geom"
)

// Surface is the contract the overlay synchronizer consumes. Exactly one
// surface is bound to an overlay at a time; implementations emit "moved"
// after every pan, zoom or resize and "destroyed" exactly once at teardown.
type Surface interface {
	// Bounds returns the surface's bounding rectangle within the global
	// viewport.
	Bounds() geom.Rect

	// Project converts a geographic coordinate to a pixel position relative
	// to the surface's own coordinate frame.
	Project(ll geom.LngLat) geom.Point

	// Container returns the surface's DOM container, read-only for geometry
	// queries. Never destroyed by consumers.
	Container() *dom.Node

	// OnMove subscribes to the "moved" signal. The returned cancel func
	// removes the subscription and is safe to call more than once.
	OnMove(fn func()) (cancel func())

	// OnDestroy subscribes to the "destroyed" signal.
	OnDestroy(fn func()) (cancel func())
}
