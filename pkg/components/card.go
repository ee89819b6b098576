package components

import (
	"github.com/recera/pinmap/pkg/vdom"
)

// CardProps defines the properties for the Card component
type CardProps struct {
	Title string
	Body  string
	// Footer renders below the body when set, typically action buttons
	Footer *vdom.VNode
	Class  string
	// DataAttrs are copied onto the root element as data-* attributes
	DataAttrs map[string]string
}

// Card lays out a titled block of popup content
func Card(props CardProps) *vdom.VNode {
	class := "pinmap-card"
	if props.Class != "" {
		class += " " + props.Class
	}

	p := vdom.Props{"class": class}
	for k, v := range props.DataAttrs {
		p["data-"+k] = v
	}

	kids := make([]*vdom.VNode, 0, 3)
	if props.Title != "" {
		kids = append(kids, vdom.Element("h3", vdom.Props{"class": "pinmap-card-title"}, vdom.Text(props.Title)))
	}
	if props.Body != "" {
		kids = append(kids, vdom.Element("p", vdom.Props{"class": "pinmap-card-body"}, vdom.Text(props.Body)))
	}
	if props.Footer != nil {
		kids = append(kids, vdom.Element("div", vdom.Props{"class": "pinmap-card-footer"}, props.Footer))
	}

	return vdom.Element("div", p, kids...)
}
