// Package html renders virtual node trees to HTML strings. It is the
// server-side pass used by the live sync server to ship popup markup to a
// browser client.
package html

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strings"

	"github.com/recera/pinmap/pkg/vdom"
)

// voidElements are HTML elements that cannot have children
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// booleanAttributes are HTML attributes that are boolean flags
var booleanAttributes = map[string]bool{
	"checked":   true,
	"disabled":  true,
	"readonly":  true,
	"required":  true,
	"selected":  true,
	"defer":     true,
	"async":     true,
	"multiple":  true,
	"autofocus": true,
}

// Applier renders virtual nodes to an io.Writer
type Applier struct {
	w   io.Writer
	err error
}

// NewApplier creates a new HTML applier
func NewApplier(w io.Writer) *Applier {
	return &Applier{w: w}
}

// Apply renders a virtual node tree. The HTML pass does not support
// incremental updates; callers render the full tree each time.
func (a *Applier) Apply(node *vdom.VNode) error {
	if node == nil {
		return nil
	}
	a.renderNode(node)
	return a.err
}

func (a *Applier) write(s string) {
	if a.err != nil {
		return
	}
	_, a.err = io.WriteString(a.w, s)
}

func (a *Applier) renderNode(node *vdom.VNode) {
	if node == nil || a.err != nil {
		return
	}

	switch node.Kind {
	case vdom.KindText:
		// Escape text content to prevent XSS.
		a.write(html.EscapeString(node.Text))

	case vdom.KindElement:
		a.renderElement(node)

	case vdom.KindFragment:
		for i := range node.Kids {
			a.renderNode(&node.Kids[i])
		}

	case vdom.KindPortal:
		// Portals render as a hidden placeholder; the client projects the
		// content into its target.
		a.write(fmt.Sprintf(`<div data-portal="%s" style="display:none"></div>`,
			html.EscapeString(node.PortalTarget)))
	}
}

func (a *Applier) renderElement(node *vdom.VNode) {
	a.write("<")
	a.write(node.Tag)

	// Nodes carrying event handlers get a marker attribute so the client
	// knows to wire a listener.
	var events []string
	for key := range node.Props {
		if vdom.IsEventProp(key) {
			events = append(events, strings.ToLower(strings.TrimPrefix(key, "on")))
		}
	}
	if len(events) > 0 {
		sort.Strings(events)
		a.write(fmt.Sprintf(` data-evt="%s"`, strings.Join(events, " ")))
	}

	// Deterministic attribute order keeps output stable for caching.
	keys := make([]string, 0, len(node.Props))
	for key := range node.Props {
		if key == "key" || key == "ref" || vdom.IsEventProp(key) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := node.Props[key]

		if booleanAttributes[key] {
			if v, ok := value.(bool); ok && v {
				a.write(" ")
				a.write(key)
			}
			continue
		}

		valueStr := fmt.Sprintf("%v", value)

		// Reject javascript: URLs in link attributes.
		if (key == "href" || key == "src") && strings.HasPrefix(strings.ToLower(valueStr), "javascript:") {
			valueStr = "#"
		}

		a.write(" ")
		a.write(key)
		a.write(`="`)
		a.write(html.EscapeString(valueStr))
		a.write(`"`)
	}

	a.write(">")

	if voidElements[node.Tag] {
		return
	}

	isRawText := node.Tag == "script" || node.Tag == "style"
	for i := range node.Kids {
		if isRawText {
			a.renderRawNode(&node.Kids[i])
		} else {
			a.renderNode(&node.Kids[i])
		}
	}

	a.write("</")
	a.write(node.Tag)
	a.write(">")
}

// renderRawNode renders text without escaping, for script/style content
func (a *Applier) renderRawNode(node *vdom.VNode) {
	if node == nil || a.err != nil {
		return
	}

	switch node.Kind {
	case vdom.KindText:
		a.write(node.Text)
	case vdom.KindElement:
		a.renderElement(node)
	case vdom.KindFragment:
		for i := range node.Kids {
			a.renderRawNode(&node.Kids[i])
		}
	}
}

// RenderToString renders a virtual node tree to a string
func RenderToString(node *vdom.VNode) (string, error) {
	var buf strings.Builder
	if err := NewApplier(&buf).Apply(node); err != nil {
		return "", err
	}
	return buf.String(), nil
}
