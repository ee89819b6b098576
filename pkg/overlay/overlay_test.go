package overlay

import (
	"testing"

	"github.com/recera/pinmap/pkg/dom"
	"github.com/recera/pinmap/pkg/frame"
	"github.com/recera/pinmap/pkg/geom"
	"github.com/recera/pinmap/pkg/surface"
	"github.com/recera/pinmap/pkg/vdom"
)

func textBody(req func()) *vdom.VNode {
	return vdom.Element("p", nil, vdom.Text("hello"))
}

// newFixture builds a document, an unstarted frame loop and a map surface
// occupying bounds. Tests drive frames explicitly through loop.Flush.
func newFixture(t *testing.T, bounds geom.Rect, center geom.LngLat, zoom float64) (*dom.Document, *frame.Loop, *surface.Map, *Overlay) {
	t.Helper()
	doc := dom.NewDocument(geom.Size{Width: 800, Height: 600})
	loop := frame.NewLoop()
	m := surface.NewMap(doc, bounds, center, zoom)
	return doc, loop, m, New(doc, loop)
}

// measure simulates the layout pass the headless document doesn't do on
// its own: gives the popup content a rendered size.
func measure(o *Overlay, size geom.Size) {
	o.mu.Lock()
	o.refs.Content.SetRect(geom.Rect{Width: size.Width, Height: size.Height})
	o.mu.Unlock()
}

func TestMountSynchronizesContainerRect(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	_, loop, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)

	ov.Mount(m, geom.NewLngLat(0, 0), Options{}, textBody)
	if !ov.Mounted() {
		t.Fatal("expected overlay mounted")
	}
	measure(ov, geom.Size{Width: 100, Height: 50})
	loop.Flush()

	// zoom 1: world 512px, center coordinate projects to viewport middle
	rect := ov.Popup().refs.Container.Rect()
	if rect.X != 400 || rect.Y != 300 {
		t.Errorf("container at (%v,%v), want (400,300)", rect.X, rect.Y)
	}
	if rect.Width != 100 || rect.Height != 50 {
		t.Errorf("container size (%v,%v), want (100,50)", rect.Width, rect.Height)
	}
	if got := ov.Popup().Anchor(); got != geom.AnchorNone {
		t.Errorf("anchor = %q, want none for a centered popup", got)
	}
}

func TestOffsetIncludesSurfacePositionAndScroll(t *testing.T) {
	bounds := geom.Rect{X: 10, Y: 20, Width: 800, Height: 600}
	doc, loop, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)
	doc.SetScroll(geom.Point{X: 5, Y: 5})

	ov.Mount(m, geom.NewLngLat(0, 0), Options{}, textBody)
	measure(ov, geom.Size{Width: 100, Height: 50})
	loop.Flush()

	if got := ov.Popup().Offset(); got != (geom.Point{X: 15, Y: 25}) {
		t.Errorf("offset = %v, want (15,25)", got)
	}
	rect := ov.Popup().refs.Container.Rect()
	if rect.X != 415 || rect.Y != 325 {
		t.Errorf("container at (%v,%v), want (415,325)", rect.X, rect.Y)
	}
}

func TestAnchorNearViewportBottom(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	_, loop, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)

	// Latitude south of center projects below the middle; pick one that
	// lands near the viewport bottom so downward placement overflows.
	ll := m.Unproject(geom.Point{X: 400, Y: 560})
	ov.Mount(m, ll, Options{}, textBody)
	measure(ov, geom.Size{Width: 100, Height: 50})
	loop.Flush()

	if got := ov.Popup().Anchor(); got != geom.AnchorBottom {
		t.Errorf("anchor = %q, want %q", got, geom.AnchorBottom)
	}
	if attr, ok := ov.Popup().refs.Container.Attr("data-anchor"); !ok || attr != "bottom" {
		t.Errorf("container data-anchor = %q (%v), want bottom", attr, ok)
	}
	if attr, ok := ov.Popup().refs.Tip.Attr("data-anchor"); !ok || attr != "bottom" {
		t.Errorf("tip data-anchor = %q (%v), want bottom", attr, ok)
	}
}

func TestSynchronizeCoalescesIntoOneFrame(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	_, loop, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)

	ov.Mount(m, geom.NewLngLat(10, 20), Options{}, textBody)
	measure(ov, geom.Size{Width: 100, Height: 50})
	loop.Flush()
	before := ov.Popup().Refreshes()

	for i := 0; i < 50; i++ {
		ov.Synchronize()
	}
	loop.Flush()

	// One frame ran: a refresh before anchoring and one after.
	if got := ov.Popup().Refreshes() - before; got != 2 {
		t.Errorf("refreshes after burst = %d, want 2", got)
	}
}

func TestMoveSignalTriggersSynchronize(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	_, loop, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)

	ov.Mount(m, geom.NewLngLat(0, 0), Options{}, textBody)
	measure(ov, geom.Size{Width: 100, Height: 50})
	loop.Flush()
	rect := ov.Popup().refs.Container.Rect()

	// Panning 100px right shifts the world under the viewport; the pinned
	// coordinate moves 100px left on screen.
	m.PanBy(geom.Point{X: 100})
	loop.Flush()

	moved := ov.Popup().refs.Container.Rect()
	if moved.X != rect.X-100 {
		t.Errorf("container x after pan = %v, want %v", moved.X, rect.X-100)
	}
}

func TestUpdateSwapsSurfaceBindings(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	doc, loop, m1, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)
	m2 := surface.NewMap(doc, bounds, geom.NewLngLat(0, 0), 2)

	ov.Mount(m1, geom.NewLngLat(0, 0), Options{}, textBody)
	measure(ov, geom.Size{Width: 100, Height: 50})
	loop.Flush()

	ov.Update(m2, geom.NewLngLat(0, 0), Options{}, nil)
	loop.Flush()

	if got := m1.MoveListenerCount(); got != 0 {
		t.Errorf("old surface has %d move listeners, want 0", got)
	}
	if got := m2.MoveListenerCount(); got != 1 {
		t.Errorf("new surface has %d move listeners, want 1", got)
	}

	// Repeated updates with the same surface must not stack subscriptions.
	ov.Update(m2, geom.NewLngLat(1, 1), Options{}, nil)
	ov.Update(m2, geom.NewLngLat(2, 2), Options{}, nil)
	if got := m2.MoveListenerCount(); got != 1 {
		t.Errorf("surface has %d move listeners after repeat updates, want 1", got)
	}
}

func TestUpdateSameCoordinateForcesRefresh(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	_, loop, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)

	ll := geom.NewLngLat(10, 20)
	ov.Mount(m, ll, Options{}, textBody)
	measure(ov, geom.Size{Width: 100, Height: 50})
	loop.Flush()

	writes := ov.Popup().CoordinateWrites()
	refreshes := ov.Popup().Refreshes()

	ov.Update(m, ll, Options{}, nil)
	loop.Flush()

	if got := ov.Popup().CoordinateWrites(); got != writes {
		t.Errorf("coordinate writes = %d, want unchanged %d", got, writes)
	}
	if got := ov.Popup().Refreshes(); got <= refreshes {
		t.Error("expected a forced refresh despite unchanged coordinate")
	}
}

func TestInvalidCoordinateFallsBackToOrigin(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	_, loop, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)

	ov.Mount(m, geom.NewLngLat(500, 200), Options{}, textBody)
	measure(ov, geom.Size{Width: 100, Height: 50})
	loop.Flush()

	if got := ov.Popup().LngLat(); got != (geom.LngLat{}) {
		t.Errorf("rendered coordinate = %v, want origin fallback", got)
	}
}

func TestUnmountIsIdempotent(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	doc, loop, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)

	ov.Mount(m, geom.NewLngLat(0, 0), Options{}, textBody)
	portal := ov.Portal()
	ov.Unmount()
	ov.Unmount()

	if ov.Mounted() {
		t.Fatal("overlay still mounted after unmount")
	}
	if portal.Attached() {
		t.Error("portal still attached to document")
	}
	if got := m.MoveListenerCount(); got != 0 {
		t.Errorf("surface has %d move listeners after unmount, want 0", got)
	}
	if doc.Body().Contains(portal) {
		t.Error("body still contains portal")
	}
	loop.Flush() // must not panic
}

func TestSynchronizeAfterUnmountIsDiscarded(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	_, loop, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)

	ov.Mount(m, geom.NewLngLat(0, 0), Options{}, textBody)
	measure(ov, geom.Size{Width: 100, Height: 50})

	ov.Synchronize()
	ov.Unmount()
	loop.Flush()

	if ov.Mounted() {
		t.Fatal("overlay mounted after unmount")
	}
	if ov.Popup() != nil {
		t.Error("popup model survived unmount")
	}
}

func TestUnmeasuredContentRetriesNextFrame(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	_, loop, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)

	ov.Mount(m, geom.NewLngLat(0, 0), Options{}, textBody)
	loop.Flush()
	if got := ov.Popup().Refreshes(); got != 0 {
		t.Fatalf("refreshes with unmeasured content = %d, want 0", got)
	}

	measure(ov, geom.Size{Width: 100, Height: 50})
	ov.Synchronize()
	loop.Flush()
	if got := ov.Popup().Refreshes(); got == 0 {
		t.Error("expected refresh once content was measured")
	}
}

func TestSurfaceDestroyUnbindsButKeepsOverlay(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	doc, loop, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)

	ov.Mount(m, geom.NewLngLat(0, 0), Options{}, textBody)
	measure(ov, geom.Size{Width: 100, Height: 50})
	loop.Flush()

	m.Destroy()
	loop.Flush() // pending frame with no surface is a no-op

	if !ov.Mounted() {
		t.Fatal("overlay unmounted by surface destroy")
	}
	if got := m.MoveListenerCount(); got != 0 {
		t.Errorf("destroyed surface has %d move listeners, want 0", got)
	}

	// Rebinding a live surface resumes synchronization.
	m2 := surface.NewMap(doc, bounds, geom.NewLngLat(0, 0), 1)
	ov.Update(m2, geom.NewLngLat(0, 0), Options{}, nil)
	loop.Flush()
	if got := m2.MoveListenerCount(); got != 1 {
		t.Errorf("replacement surface has %d move listeners, want 1", got)
	}
}

func TestMountOnDestroyedSurface(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	_, _, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)

	m.Destroy()
	ov.Mount(m, geom.NewLngLat(0, 0), Options{}, textBody) // must not deadlock

	if !ov.Mounted() {
		t.Fatal("expected overlay mounted")
	}
	if got := m.MoveListenerCount(); got != 0 {
		t.Errorf("dead surface has %d move listeners, want 0", got)
	}
}

func TestCloseButtonUnmountsAndNotifies(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	doc, loop, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)

	closed := false
	ov.OnClose(func() { closed = true })
	ov.Mount(m, geom.NewLngLat(0, 0), Options{CloseButton: true}, textBody)
	measure(ov, geom.Size{Width: 100, Height: 50})
	loop.Flush()

	var button *dom.Node
	for _, kid := range ov.Popup().refs.Content.Children() {
		if kid.Tag == "button" {
			button = kid
		}
	}
	if button == nil {
		t.Fatal("close button not rendered")
	}

	doc.Click(button)
	if !closed {
		t.Error("OnClose callback not fired")
	}
	if ov.Mounted() {
		t.Error("overlay still mounted after close click")
	}
}

func TestCloseOnClickOutside(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	doc, loop, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)

	ov.Mount(m, geom.NewLngLat(0, 0), Options{CloseOnClick: true}, textBody)
	measure(ov, geom.Size{Width: 100, Height: 50})
	loop.Flush()

	// A click inside the popup keeps it open.
	doc.Click(ov.Popup().refs.Content)
	if !ov.Mounted() {
		t.Fatal("overlay closed by a click inside the popup")
	}

	doc.Click(doc.Body())
	if ov.Mounted() {
		t.Error("overlay still mounted after outside click")
	}
}

func TestMountTwiceIsNoOp(t *testing.T) {
	bounds := geom.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	_, _, m, ov := newFixture(t, bounds, geom.NewLngLat(0, 0), 1)

	ov.Mount(m, geom.NewLngLat(0, 0), Options{}, textBody)
	portal := ov.Portal()
	ov.Mount(m, geom.NewLngLat(1, 1), Options{}, textBody)

	if ov.Portal() != portal {
		t.Error("second mount replaced the portal")
	}
	if got := m.MoveListenerCount(); got != 1 {
		t.Errorf("surface has %d move listeners, want 1", got)
	}
}
