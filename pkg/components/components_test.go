package components

import (
	"strings"
	"testing"

	"github.com/recera/pinmap/pkg/renderer/html"
)

func TestButtonVariantsAndState(t *testing.T) {
	out, err := html.RenderToString(Button(ButtonProps{Text: "Go", Variant: ButtonDanger}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "pinmap-btn-danger") || !strings.Contains(out, ">Go<") {
		t.Errorf("markup = %q", out)
	}

	out, _ = html.RenderToString(Button(ButtonProps{Text: "Wait", Disabled: true, OnClick: func() {}}))
	if !strings.Contains(out, `disabled="disabled"`) {
		t.Errorf("disabled button markup = %q", out)
	}
	if strings.Contains(out, "data-evt") {
		t.Error("disabled button still carries an event binding")
	}
}

func TestButtonClickBinding(t *testing.T) {
	clicked := false
	node := Button(ButtonProps{Text: "Hit", OnClick: func() { clicked = true }})

	handler := node.Handler("onClick")
	if handler == nil {
		t.Fatal("no click handler bound")
	}
	handler()
	if !clicked {
		t.Error("handler did not run")
	}
}

func TestCardLayout(t *testing.T) {
	card := Card(CardProps{
		Title:     "Depot",
		Body:      "Open until 18:00",
		Footer:    Button(ButtonProps{Text: "Route"}),
		DataAttrs: map[string]string{"marker": "depot-1"},
	})

	out, err := html.RenderToString(card)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"pinmap-card-title", "Depot", "pinmap-card-body", "pinmap-card-footer", `data-marker="depot-1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("markup missing %q: %s", want, out)
		}
	}

	empty := Card(CardProps{})
	if len(empty.Kids) != 0 {
		t.Errorf("empty card has %d children", len(empty.Kids))
	}
}
