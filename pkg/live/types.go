package live

import "github.com/recera/pinmap/pkg/vdom"

// MessageType represents the type of live protocol frame
type MessageType uint8

const (
	// FramePosition carries the popup's on-page rectangle and anchor
	FramePosition MessageType = 0x00
	// FrameEvent carries a client viewport interaction
	FrameEvent MessageType = 0x01
	// FrameControl carries session control messages (HELLO, PING, PONG)
	FrameControl MessageType = 0x02
	// FramePopup carries rendered popup markup
	FramePopup MessageType = 0x03
	// FramePatch carries tree mutations for an already-open popup body
	FramePatch MessageType = 0x04
)

// EventType represents client-side interaction types
type EventType uint8

const (
	EventPan    EventType = 0x01 // payload: dx, dy pixels
	EventZoom   EventType = 0x02 // payload: zoom delta
	EventOpen   EventType = 0x03 // payload: marker id
	EventClose  EventType = 0x04
	EventResize EventType = 0x05 // payload: width, height
	EventScroll EventType = 0x06 // payload: x, y page scroll
)

// Event is a decoded client interaction
type Event struct {
	Type     EventType
	DX, DY   float64
	MarkerID string
}

// PatchEntry is one wire-encoded mutation of the rendered popup body.
// Insert operations carry the new subtree pre-rendered as HTML; event
// operations carry only the node id, the client rebinds from its data-evt
// markers.
type PatchEntry struct {
	Op       vdom.PatchOp
	NodeID   uint32
	ParentID uint32
	BeforeID uint32
	Key      string
	Value    string
	HTML     string
}

// Position is a popup placement update streamed to clients
type Position struct {
	Seq    uint64
	X, Y   float64
	Width  float64
	Height float64
	Anchor string
	// Open reports whether a popup is currently mounted; a false value
	// means the rest of the fields are zero.
	Open bool
}
