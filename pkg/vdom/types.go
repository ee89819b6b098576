// Package vdom holds the virtual node tree used to describe popup content,
// and the diff that turns two trees into a minimal patch list.
package vdom

import "strings"

// Kind represents the type of virtual node
type Kind uint8

const (
	// KindElement represents an element node
	KindElement Kind = iota
	// KindText represents a text node
	KindText
	// KindFragment represents multiple children without a parent element
	KindFragment
	// KindPortal represents content projected into a node elsewhere in the
	// document
	KindPortal
)

// Props represents the properties/attributes of a node. Keys starting with
// "on" (onClick, ...) hold event handlers and are never serialized as
// attributes.
type Props map[string]any

// VNode is an immutable virtual node. Once built it must not be modified.
type VNode struct {
	Kind  Kind
	Tag   string
	Props Props
	Kids  []VNode
	Key   string

	// Text content, only for KindText
	Text string

	// Portal target selector, only for KindPortal
	PortalTarget string
}

// Element builds an element node
func Element(tag string, props Props, kids ...*VNode) *VNode {
	n := &VNode{Kind: KindElement, Tag: tag, Props: props}
	n.Kids = collect(kids)
	if props != nil {
		if key, ok := props["key"].(string); ok {
			n.Key = key
		}
	}
	return n
}

// Text builds a text node
func Text(text string) *VNode {
	return &VNode{Kind: KindText, Text: text}
}

// Fragment builds a fragment node
func Fragment(kids ...*VNode) *VNode {
	return &VNode{Kind: KindFragment, Kids: collect(kids)}
}

// Portal builds a portal node projecting its children into target
func Portal(target string, kids ...*VNode) *VNode {
	return &VNode{Kind: KindPortal, PortalTarget: target, Kids: collect(kids)}
}

func collect(kids []*VNode) []VNode {
	if len(kids) == 0 {
		return nil
	}
	out := make([]VNode, 0, len(kids))
	for _, kid := range kids {
		if kid != nil {
			out = append(out, *kid)
		}
	}
	return out
}

// IsEventProp reports whether a prop key names an event handler
func IsEventProp(key string) bool {
	return len(key) > 2 && strings.HasPrefix(key, "on")
}

// GetKey returns the reconciliation key of the node, if any
func (v VNode) GetKey() string {
	if v.Key != "" {
		return v.Key
	}
	if v.Props != nil {
		if key, ok := v.Props["key"].(string); ok {
			return key
		}
	}
	return ""
}

// Handler returns the event handler stored under the given prop key
func (v VNode) Handler(key string) func() {
	if v.Props == nil {
		return nil
	}
	if fn, ok := v.Props[key].(func()); ok {
		return fn
	}
	return nil
}
