// Package components provides small building blocks for popup content
package components

import (
	"strings"

	"github.com/recera/pinmap/pkg/vdom"
)

// ButtonVariant defines the visual style of the button
type ButtonVariant string

const (
	ButtonPrimary   ButtonVariant = "primary"
	ButtonSecondary ButtonVariant = "secondary"
	ButtonDanger    ButtonVariant = "danger"
	ButtonGhost     ButtonVariant = "ghost"
)

// ButtonProps defines the properties for the Button component
type ButtonProps struct {
	Text     string
	Variant  ButtonVariant
	Disabled bool
	OnClick  func()
	Class    string
	ID       string
}

// Button creates a clickable button for popup content
func Button(props ButtonProps) *vdom.VNode {
	if props.Variant == "" {
		props.Variant = ButtonPrimary
	}

	classes := []string{"pinmap-btn", "pinmap-btn-" + string(props.Variant)}
	if props.Class != "" {
		classes = append(classes, props.Class)
	}

	p := vdom.Props{"class": strings.Join(classes, " ")}
	if props.ID != "" {
		p["id"] = props.ID
	}
	if props.Disabled {
		p["disabled"] = "disabled"
	} else if props.OnClick != nil {
		p["onClick"] = props.OnClick
	}

	return vdom.Element("button", p, vdom.Text(props.Text))
}
