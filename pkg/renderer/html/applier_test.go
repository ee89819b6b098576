package html

import (
	"strings"
	"testing"

	"github.com/recera/pinmap/pkg/vdom"
)

func render(t *testing.T, node *vdom.VNode) string {
	t.Helper()
	out, err := RenderToString(node)
	if err != nil {
		t.Fatalf("RenderToString failed: %v", err)
	}
	return out
}

func TestRenderToString_Element(t *testing.T) {
	out := render(t, vdom.Element("div", vdom.Props{"class": "popup"},
		vdom.Element("span", nil, vdom.Text("hello")),
	))
	want := `<div class="popup"><span>hello</span></div>`
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRenderToString_EscapesText(t *testing.T) {
	out := render(t, vdom.Element("div", nil, vdom.Text(`<script>alert("x")</script>`)))
	if strings.Contains(out, "<script>") {
		t.Errorf("text was not escaped: %q", out)
	}
}

func TestRenderToString_EscapesAttributes(t *testing.T) {
	out := render(t, vdom.Element("div", vdom.Props{"title": `"><img>`}))
	if strings.Contains(out, `"><img>`) {
		t.Errorf("attribute was not escaped: %q", out)
	}
}

func TestRenderToString_BlocksJavascriptURLs(t *testing.T) {
	out := render(t, vdom.Element("a", vdom.Props{"href": "JavaScript:alert(1)"}, vdom.Text("x")))
	if !strings.Contains(out, `href="#"`) {
		t.Errorf("javascript: URL should be replaced: %q", out)
	}
}

func TestRenderToString_VoidElement(t *testing.T) {
	out := render(t, vdom.Element("br", nil))
	if out != "<br>" {
		t.Errorf("void element rendered as %q", out)
	}
}

func TestRenderToString_BooleanAttributes(t *testing.T) {
	out := render(t, vdom.Element("input", vdom.Props{"disabled": true, "type": "text"}))
	if !strings.Contains(out, " disabled") {
		t.Errorf("true boolean attribute missing: %q", out)
	}

	out = render(t, vdom.Element("input", vdom.Props{"disabled": false, "type": "text"}))
	if strings.Contains(out, "disabled") {
		t.Errorf("false boolean attribute should be omitted: %q", out)
	}
}

func TestRenderToString_EventMarker(t *testing.T) {
	out := render(t, vdom.Element("button", vdom.Props{"onClick": func() {}}, vdom.Text("close")))
	if !strings.Contains(out, `data-evt="click"`) {
		t.Errorf("event marker missing: %q", out)
	}
	if strings.Contains(out, "onClick") {
		t.Errorf("handler prop must not serialize: %q", out)
	}
}

func TestRenderToString_Fragment(t *testing.T) {
	out := render(t, vdom.Fragment(
		vdom.Element("i", nil, vdom.Text("a")),
		vdom.Element("i", nil, vdom.Text("b")),
	))
	if out != "<i>a</i><i>b</i>" {
		t.Errorf("fragment rendered as %q", out)
	}
}

func TestRenderToString_PortalPlaceholder(t *testing.T) {
	out := render(t, vdom.Portal("#overlay", vdom.Element("div", nil)))
	if !strings.Contains(out, `data-portal="#overlay"`) {
		t.Errorf("portal placeholder missing: %q", out)
	}
}

func TestRenderToString_RawScriptContent(t *testing.T) {
	out := render(t, vdom.Element("script", nil, vdom.Text("if (a < b) {}")))
	if !strings.Contains(out, "if (a < b) {}") {
		t.Errorf("script content should not be escaped: %q", out)
	}
}

func TestRenderToString_DeterministicAttributeOrder(t *testing.T) {
	node := vdom.Element("div", vdom.Props{"b": "2", "a": "1", "c": "3"})
	first := render(t, node)
	for i := 0; i < 10; i++ {
		if got := render(t, node); got != first {
			t.Fatalf("attribute order unstable: %q vs %q", got, first)
		}
	}
	if first != `<div a="1" b="2" c="3"></div>` {
		t.Errorf("expected sorted attributes, got %q", first)
	}
}
