// Package dom implements a headless document tree. It stands in for the
// browser DOM: nodes carry a tag, attributes, children and a measured layout
// rectangle, and the document tracks viewport size, page scroll and click
// dispatch. Renderers project virtual nodes into this tree and geometry code
// reads measurements back out of it.
package dom

import (
	"sync"

	"github.com/recera/pinmap/pkg/geom"
)

// Document is the root of a headless DOM tree
type Document struct {
	mu       sync.RWMutex
	body     *Node
	viewport geom.Size
	scroll   geom.Point

	listenersMu    sync.Mutex
	clickListeners map[uint64]func(target *Node)
	nextListenerID uint64
}

// NewDocument creates a document with the given viewport dimensions
func NewDocument(viewport geom.Size) *Document {
	doc := &Document{viewport: viewport}
	doc.body = &Node{doc: doc, Tag: "body"}
	return doc
}

// Body returns the document body node
func (d *Document) Body() *Node {
	return d.body
}

// CreateElement creates a detached element node owned by this document
func (d *Document) CreateElement(tag string) *Node {
	return &Node{doc: d, Tag: tag, attrs: make(map[string]string)}
}

// CreateText creates a detached text node
func (d *Document) CreateText(text string) *Node {
	return &Node{doc: d, Text: text}
}

// Viewport returns the client dimensions
func (d *Document) Viewport() geom.Size {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.viewport
}

// SetViewport updates the client dimensions
func (d *Document) SetViewport(viewport geom.Size) {
	d.mu.Lock()
	d.viewport = viewport
	d.mu.Unlock()
}

// Scroll returns the current page scroll offset
func (d *Document) Scroll() geom.Point {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.scroll
}

// SetScroll updates the page scroll offset
func (d *Document) SetScroll(scroll geom.Point) {
	d.mu.Lock()
	d.scroll = scroll
	d.mu.Unlock()
}

// Click dispatches a click on the target node, bubbling up through its
// ancestors until a handler stops propagation. Document-level listeners
// fire afterwards unless propagation was stopped.
func (d *Document) Click(target *Node) {
	for n := target; n != nil; n = n.parent {
		if n.onClick != nil {
			if n.onClick(target) {
				return
			}
		}
	}

	d.listenersMu.Lock()
	listeners := make([]func(*Node), 0, len(d.clickListeners))
	for _, fn := range d.clickListeners {
		listeners = append(listeners, fn)
	}
	d.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(target)
	}
}

// OnClick registers a document-level click listener, invoked for clicks
// that no node handler stopped. The returned cancel func removes it and is
// safe to call more than once.
func (d *Document) OnClick(fn func(target *Node)) (cancel func()) {
	d.listenersMu.Lock()
	if d.clickListeners == nil {
		d.clickListeners = make(map[uint64]func(*Node))
	}
	id := d.nextListenerID
	d.nextListenerID++
	d.clickListeners[id] = fn
	d.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.listenersMu.Lock()
			delete(d.clickListeners, id)
			d.listenersMu.Unlock()
		})
	}
}

// Node is a single element or text node in the document tree
type Node struct {
	doc  *Document
	Tag  string
	Text string

	attrs   map[string]string
	parent  *Node
	kids    []*Node
	rect    geom.Rect
	onClick func(target *Node) (stop bool)
}

// Document returns the owning document
func (n *Node) Document() *Document {
	return n.doc
}

// Parent returns the parent node, nil when detached
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the child nodes in order
func (n *Node) Children() []*Node {
	return n.kids
}

// AppendChild attaches a child at the end of this node's children,
// detaching it from a previous parent first.
func (n *Node) AppendChild(child *Node) {
	if child == nil || child == n {
		return
	}
	child.Detach()
	child.parent = n
	n.kids = append(n.kids, child)
}

// InsertBefore attaches child before the given reference node. A nil
// reference appends.
func (n *Node) InsertBefore(child, before *Node) {
	if child == nil || child == n {
		return
	}
	if before == nil {
		n.AppendChild(child)
		return
	}
	child.Detach()
	for i, kid := range n.kids {
		if kid == before {
			child.parent = n
			n.kids = append(n.kids[:i], append([]*Node{child}, n.kids[i:]...)...)
			return
		}
	}
	n.AppendChild(child)
}

// Detach removes the node from its parent. Safe to call on an already
// detached node.
func (n *Node) Detach() {
	p := n.parent
	if p == nil {
		return
	}
	for i, kid := range p.kids {
		if kid == n {
			p.kids = append(p.kids[:i], p.kids[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Attached reports whether the node is reachable from the document body
func (n *Node) Attached() bool {
	for p := n; p != nil; p = p.parent {
		if p == n.doc.body {
			return true
		}
	}
	return false
}

// Contains reports whether other is n or a descendant of n
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Attr returns the attribute value and whether it is set
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// SetAttr sets an attribute value
func (n *Node) SetAttr(key, value string) {
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[key] = value
}

// RemoveAttr clears an attribute
func (n *Node) RemoveAttr(key string) {
	delete(n.attrs, key)
}

// Rect returns the node's measured layout rectangle in the coordinate frame
// of its positioning container.
func (n *Node) Rect() geom.Rect {
	return n.rect
}

// SetRect records the node's measured layout rectangle. In a browser this
// comes from getBoundingClientRect; here the layout owner (or a test)
// writes it.
func (n *Node) SetRect(rect geom.Rect) {
	n.rect = rect
}

// Size returns the node's measured dimensions
func (n *Node) Size() geom.Size {
	return geom.Size{Width: n.rect.Width, Height: n.rect.Height}
}

// OnClick installs a click handler. The handler receives the original click
// target and returns true to stop propagation.
func (n *Node) OnClick(fn func(target *Node) (stop bool)) {
	n.onClick = fn
}
