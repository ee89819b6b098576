// Package geom provides the pixel and geographic geometry primitives used
// by the overlay synchronizer: points, rectangles, coordinates and anchor
// placement.
package geom

// Point represents a pixel coordinate
type Point struct {
	X float64
	Y float64
}

// Add returns the component-wise sum of two points
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Size represents pixel dimensions
type Size struct {
	Width  float64
	Height float64
}

// Rect represents a rectangle in viewport coordinates.
// Negative extents are tolerated; the edge accessors normalize them.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Top returns the top edge (y for positive height, y + height for negative).
func (r Rect) Top() float64 {
	if r.Height < 0 {
		return r.Y + r.Height
	}
	return r.Y
}

// Bottom returns the bottom edge (y + height for positive height, y for negative).
func (r Rect) Bottom() float64 {
	if r.Height < 0 {
		return r.Y
	}
	return r.Y + r.Height
}

// Left returns the left edge (x for positive width, x + width for negative).
func (r Rect) Left() float64 {
	if r.Width < 0 {
		return r.X + r.Width
	}
	return r.X
}

// Right returns the right edge (x + width for positive width, x for negative).
func (r Rect) Right() float64 {
	if r.Width < 0 {
		return r.X
	}
	return r.X + r.Width
}

// TopLeft returns the top-left corner as a Point
func (r Rect) TopLeft() Point {
	return Point{X: r.Left(), Y: r.Top()}
}

// Contains reports whether the point lies within the rectangle
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left() && p.X < r.Right() && p.Y >= r.Top() && p.Y < r.Bottom()
}

// CalcOffset computes the pixel vector that corrects a surface-relative
// coordinate system for the surface's position within the full page: the
// surface bounding-rectangle top-left corner plus the current page scroll.
func CalcOffset(surfaceRect Rect, scroll Point) Point {
	return surfaceRect.TopLeft().Add(scroll)
}
