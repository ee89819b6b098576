// Package dom renders virtual node trees into a headless document tree,
// reconciling successive renders in place and keeping event handlers bound.
package dom

import (
	"fmt"

	"github.com/recera/pinmap/pkg/dom"
	"github.com/recera/pinmap/pkg/vdom"
)

// Applier projects virtual trees into a mount node and keeps the rendered
// tree in sync across renders.
type Applier struct {
	mount *dom.Node
	prev  *vdom.VNode
}

// NewApplier creates an applier rendering into the given mount node
func NewApplier(mount *dom.Node) *Applier {
	return &Applier{mount: mount}
}

// Mount returns the node the applier renders into
func (a *Applier) Mount() *dom.Node {
	return a.mount
}

// Render reconciles the mount node's content against next. A nil next clears
// the mount node.
func (a *Applier) Render(next *vdom.VNode) {
	reconcileKids(a.mount, asKids(a.prev), asKids(next))
	a.prev = next
}

// Clear removes all rendered content from the mount node
func (a *Applier) Clear() {
	a.Render(nil)
}

// asKids flattens a root vnode into the child list rendered under the mount
// node. Fragments contribute their children directly.
func asKids(root *vdom.VNode) []vdom.VNode {
	if root == nil {
		return nil
	}
	if root.Kind == vdom.KindFragment {
		return root.Kids
	}
	return []vdom.VNode{*root}
}

func reconcileKids(parent *dom.Node, prev, next []vdom.VNode) {
	// Snapshot: Detach mutates the live child slice.
	existing := append([]*dom.Node(nil), parent.Children()...)

	min := len(prev)
	if len(next) < min {
		min = len(next)
	}

	for i := 0; i < min; i++ {
		if i < len(existing) {
			reconcileNode(parent, existing[i], &prev[i], &next[i])
		} else {
			parent.AppendChild(build(parent.Document(), &next[i]))
		}
	}

	// Remove children the new tree no longer has.
	for i := len(next); i < len(prev) && i < len(existing); i++ {
		existing[i].Detach()
	}

	// Append children the old tree did not have.
	for i := min; i < len(next); i++ {
		parent.AppendChild(build(parent.Document(), &next[i]))
	}
}

func reconcileNode(parent *dom.Node, node *dom.Node, prev, next *vdom.VNode) {
	// Different kind or tag: rebuild the subtree in place.
	if prev.Kind != next.Kind || (next.Kind == vdom.KindElement && prev.Tag != next.Tag) {
		fresh := build(parent.Document(), next)
		parent.InsertBefore(fresh, node)
		node.Detach()
		return
	}

	switch next.Kind {
	case vdom.KindText:
		node.Text = next.Text

	case vdom.KindElement:
		syncAttrs(node, prev.Props, next.Props)
		bindEvents(node, next)
		reconcileKids(node, prev.Kids, next.Kids)

	case vdom.KindFragment:
		reconcileKids(node, prev.Kids, next.Kids)

	case vdom.KindPortal:
		// Portals render as an inert placeholder in the headless tree, the
		// same way the server-side HTML pass treats them.
		node.SetAttr("data-portal", next.PortalTarget)
	}
}

func build(doc *dom.Document, v *vdom.VNode) *dom.Node {
	switch v.Kind {
	case vdom.KindText:
		return doc.CreateText(v.Text)

	case vdom.KindPortal:
		placeholder := doc.CreateElement("div")
		placeholder.SetAttr("data-portal", v.PortalTarget)
		placeholder.SetAttr("style", "display:none")
		return placeholder

	case vdom.KindFragment:
		// A fragment at build position gets a transparent wrapper node.
		wrapper := doc.CreateElement("div")
		wrapper.SetAttr("data-fragment", "true")
		for i := range v.Kids {
			wrapper.AppendChild(build(doc, &v.Kids[i]))
		}
		return wrapper

	default:
		node := doc.CreateElement(v.Tag)
		syncAttrs(node, nil, v.Props)
		bindEvents(node, v)
		for i := range v.Kids {
			node.AppendChild(build(doc, &v.Kids[i]))
		}
		return node
	}
}

func syncAttrs(node *dom.Node, prev, next vdom.Props) {
	for key := range prev {
		if skipProp(key) {
			continue
		}
		if _, exists := next[key]; !exists {
			node.RemoveAttr(key)
		}
	}
	for key, val := range next {
		if skipProp(key) {
			continue
		}
		node.SetAttr(key, propString(val))
	}
}

// bindEvents rebinds the node's click handler on every render; handler
// functions are not comparable so there is no change detection to do.
func bindEvents(node *dom.Node, v *vdom.VNode) {
	if fn := v.Handler("onClick"); fn != nil {
		node.OnClick(func(*dom.Node) bool {
			fn()
			return true
		})
	} else {
		node.OnClick(nil)
	}
}

func skipProp(key string) bool {
	return key == "key" || key == "ref" || vdom.IsEventProp(key)
}

func propString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
