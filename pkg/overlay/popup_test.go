package overlay

import (
	"testing"

	"github.com/recera/pinmap/pkg/dom"
	"github.com/recera/pinmap/pkg/geom"
	"github.com/recera/pinmap/pkg/surface"
)

func newPopupFixture(t *testing.T) (*Popup, *surface.Map) {
	t.Helper()
	doc := dom.NewDocument(geom.Size{Width: 800, Height: 600})
	container := doc.CreateElement("div")
	tip := doc.CreateElement("div")
	content := doc.CreateElement("div")
	container.AppendChild(tip)
	container.AppendChild(content)
	doc.Body().AppendChild(container)

	m := surface.NewMap(doc, geom.Rect{Width: 800, Height: 600}, geom.NewLngLat(0, 0), 1)
	refs := &Refs{Container: container, Content: content, Tip: tip}
	return NewPopup(refs, Options{}.withDefaults()), m
}

func TestPopupAnchorAttrMirroring(t *testing.T) {
	p, _ := newPopupFixture(t)

	p.SetAnchor(geom.AnchorTopLeft)
	if attr, _ := p.refs.Container.Attr("data-anchor"); attr != "top-left" {
		t.Errorf("container data-anchor = %q, want top-left", attr)
	}
	if attr, _ := p.refs.Tip.Attr("data-anchor"); attr != "top-left" {
		t.Errorf("tip data-anchor = %q, want top-left", attr)
	}

	p.SetAnchor(geom.AnchorNone)
	if _, ok := p.refs.Container.Attr("data-anchor"); ok {
		t.Error("data-anchor attribute not removed for the default anchor")
	}
}

func TestPopupRefreshWithoutMeasurement(t *testing.T) {
	p, m := newPopupFixture(t)

	if p.Refresh(m) {
		t.Error("refresh succeeded with zero-sized content")
	}
	if got := p.Refreshes(); got != 0 {
		t.Errorf("refreshes = %d, want 0", got)
	}
}

func TestPopupRefreshWithClearedRefs(t *testing.T) {
	p, m := newPopupFixture(t)
	p.refs.Container = nil

	if p.Refresh(m) {
		t.Error("refresh succeeded with cleared refs")
	}
}

func TestPopupRefreshAppliesGeometry(t *testing.T) {
	p, m := newPopupFixture(t)
	p.refs.Content.SetRect(geom.Rect{Width: 120, Height: 60})
	p.SetOffset(geom.Point{X: 15, Y: 25})

	if !p.Refresh(m) {
		t.Fatal("refresh failed with measured content")
	}

	rect := p.refs.Container.Rect()
	if rect.X != 415 || rect.Y != 325 {
		t.Errorf("container at (%v,%v), want (415,325)", rect.X, rect.Y)
	}
	if style, _ := p.refs.Content.Attr("style"); style != "max-width:"+DefaultMaxWidth {
		t.Errorf("content style = %q, want default max-width", style)
	}
}

func TestPopupMaxWidthOverride(t *testing.T) {
	p, m := newPopupFixture(t)
	p.refs.Content.SetRect(geom.Rect{Width: 120, Height: 60})
	p.SetOptions(Options{MaxWidth: "480px"}.withDefaults())

	p.Refresh(m)
	if style, _ := p.refs.Content.Attr("style"); style != "max-width:480px" {
		t.Errorf("content style = %q, want max-width:480px", style)
	}
}

func TestPopupInvalidCoordinateDefaults(t *testing.T) {
	p, _ := newPopupFixture(t)

	p.SetLngLat(geom.NewLngLat(999, 99))
	if got := p.LngLat(); got != (geom.LngLat{}) {
		t.Errorf("coordinate = %v, want origin fallback", got)
	}
	if got := p.CoordinateWrites(); got != 1 {
		t.Errorf("coordinate writes = %d, want 1", got)
	}
}
