package live

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/recera/pinmap/pkg/renderer/html"
	"github.com/recera/pinmap/pkg/vdom"
)

// Encoder handles encoding of live protocol frames
type Encoder struct {
	w io.Writer
}

// NewEncoder creates a new encoder
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteUvarint writes an unsigned varint
func (e *Encoder) WriteUvarint(v uint64) error {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, v)
	_, err := e.w.Write(buf[:n])
	return err
}

// WriteString writes a length-prefixed string
func (e *Encoder) WriteString(s string) error {
	if err := e.WriteUvarint(uint64(len(s))); err != nil {
		return err
	}
	_, err := e.w.Write([]byte(s))
	return err
}

// WriteFloat64 writes a little-endian IEEE 754 double
func (e *Encoder) WriteFloat64(v float64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	_, err := e.w.Write(buf[:])
	return err
}

// WriteBytes writes raw bytes
func (e *Encoder) WriteBytes(b []byte) error {
	_, err := e.w.Write(b)
	return err
}

// Decoder handles decoding of live protocol frames
type Decoder struct {
	r   io.Reader
	buf []byte
}

// NewDecoder creates a new decoder
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, 1024),
	}
}

// ReadUvarint reads an unsigned varint
func (d *Decoder) ReadUvarint() (uint64, error) {
	return binary.ReadUvarint(d)
}

// ReadByte implements io.ByteReader
func (d *Decoder) ReadByte() (byte, error) {
	var b [1]byte
	_, err := io.ReadFull(d.r, b[:])
	return b[0], err
}

// maxStringLen bounds a single decoded string. Frames are small; a hostile
// length prefix must not drive the allocation below.
const maxStringLen = 1 << 20

// ReadString reads a length-prefixed string
func (d *Decoder) ReadString() (string, error) {
	length, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if length > maxStringLen {
		return "", errors.New("string length exceeds frame limit")
	}
	// Frames decode from in-memory readers, so the remaining input size is
	// known; reject lengths the payload cannot possibly satisfy.
	if r, ok := d.r.(interface{ Len() int }); ok && length > uint64(r.Len()) {
		return "", io.ErrUnexpectedEOF
	}

	if length > uint64(len(d.buf)) {
		d.buf = make([]byte, length)
	}

	n, err := io.ReadFull(d.r, d.buf[:length])
	if err != nil {
		return "", err
	}

	return string(d.buf[:n]), nil
}

// ReadFloat64 reads a little-endian IEEE 754 double
func (d *Decoder) ReadFloat64() (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

// EncodeEvent encodes a client interaction to binary format
func EncodeEvent(evt Event) []byte {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	enc.WriteBytes([]byte{byte(FrameEvent), byte(evt.Type)})

	switch evt.Type {
	case EventPan, EventResize, EventScroll:
		enc.WriteFloat64(evt.DX)
		enc.WriteFloat64(evt.DY)
	case EventZoom:
		enc.WriteFloat64(evt.DX)
	case EventOpen:
		enc.WriteString(evt.MarkerID)
	case EventClose:
	}

	return buf.Bytes()
}

// DecodeEvent decodes a client interaction from binary format
func DecodeEvent(data []byte) (*Event, error) {
	if len(data) < 2 {
		return nil, errors.New("event frame too short")
	}
	if data[0] != byte(FrameEvent) {
		return nil, errors.New("not an event frame")
	}

	evt := &Event{Type: EventType(data[1])}
	dec := NewDecoder(bytes.NewReader(data[2:]))

	var err error
	switch evt.Type {
	case EventPan, EventResize, EventScroll:
		if evt.DX, err = dec.ReadFloat64(); err != nil {
			return nil, err
		}
		if evt.DY, err = dec.ReadFloat64(); err != nil {
			return nil, err
		}
	case EventZoom:
		if evt.DX, err = dec.ReadFloat64(); err != nil {
			return nil, err
		}
	case EventOpen:
		if evt.MarkerID, err = dec.ReadString(); err != nil {
			return nil, err
		}
	case EventClose:
	default:
		return nil, errors.New("unknown event type")
	}

	return evt, nil
}

// EncodePosition encodes a popup placement frame
func EncodePosition(p Position) []byte {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	enc.WriteBytes([]byte{byte(FramePosition)})
	enc.WriteUvarint(p.Seq)
	open := uint64(0)
	if p.Open {
		open = 1
	}
	enc.WriteUvarint(open)
	if p.Open {
		enc.WriteFloat64(p.X)
		enc.WriteFloat64(p.Y)
		enc.WriteFloat64(p.Width)
		enc.WriteFloat64(p.Height)
		enc.WriteString(p.Anchor)
	}

	return buf.Bytes()
}

// DecodePosition decodes a popup placement frame
func DecodePosition(data []byte) (*Position, error) {
	if len(data) < 1 || data[0] != byte(FramePosition) {
		return nil, errors.New("not a position frame")
	}

	dec := NewDecoder(bytes.NewReader(data[1:]))
	var p Position
	var err error

	if p.Seq, err = dec.ReadUvarint(); err != nil {
		return nil, err
	}
	open, err := dec.ReadUvarint()
	if err != nil {
		return nil, err
	}
	p.Open = open > 0
	if !p.Open {
		return &p, nil
	}

	if p.X, err = dec.ReadFloat64(); err != nil {
		return nil, err
	}
	if p.Y, err = dec.ReadFloat64(); err != nil {
		return nil, err
	}
	if p.Width, err = dec.ReadFloat64(); err != nil {
		return nil, err
	}
	if p.Height, err = dec.ReadFloat64(); err != nil {
		return nil, err
	}
	if p.Anchor, err = dec.ReadString(); err != nil {
		return nil, err
	}

	return &p, nil
}

// EncodePopup encodes a rendered popup markup frame
func EncodePopup(markerID, html string) []byte {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	enc.WriteBytes([]byte{byte(FramePopup)})
	enc.WriteString(markerID)
	enc.WriteString(html)

	return buf.Bytes()
}

// DecodePopup decodes a rendered popup markup frame
func DecodePopup(data []byte) (markerID, html string, err error) {
	if len(data) < 1 || data[0] != byte(FramePopup) {
		return "", "", errors.New("not a popup frame")
	}

	dec := NewDecoder(bytes.NewReader(data[1:]))
	if markerID, err = dec.ReadString(); err != nil {
		return "", "", err
	}
	if html, err = dec.ReadString(); err != nil {
		return "", "", err
	}
	return markerID, html, nil
}

// maxPatchCount bounds the number of entries a patch frame may claim
const maxPatchCount = 4096

// EncodePatch encodes body mutations for an already-open popup. Inserted
// subtrees are rendered to HTML; the client splices the markup in at the
// patched position.
func EncodePatch(markerID string, patches []vdom.Patch) []byte {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	enc.WriteBytes([]byte{byte(FramePatch)})
	enc.WriteString(markerID)
	enc.WriteUvarint(uint64(len(patches)))

	for _, p := range patches {
		enc.WriteBytes([]byte{byte(p.Op)})
		enc.WriteUvarint(uint64(p.NodeID))

		switch p.Op {
		case vdom.OpText:
			enc.WriteString(p.Value)
		case vdom.OpSetAttr:
			enc.WriteString(p.Key)
			enc.WriteString(p.Value)
		case vdom.OpRemoveAttr:
			enc.WriteString(p.Key)
		case vdom.OpInsert:
			enc.WriteUvarint(uint64(p.ParentID))
			enc.WriteUvarint(uint64(p.BeforeID))
			markup, err := html.RenderToString(p.Node)
			if err != nil {
				markup = ""
			}
			enc.WriteString(markup)
		case vdom.OpMove:
			enc.WriteUvarint(uint64(p.ParentID))
			enc.WriteUvarint(uint64(p.BeforeID))
		case vdom.OpRemove, vdom.OpEvents:
		}
	}

	return buf.Bytes()
}

// DecodePatch decodes a popup body patch frame
func DecodePatch(data []byte) (markerID string, entries []PatchEntry, err error) {
	if len(data) < 1 || data[0] != byte(FramePatch) {
		return "", nil, errors.New("not a patch frame")
	}

	dec := NewDecoder(bytes.NewReader(data[1:]))
	if markerID, err = dec.ReadString(); err != nil {
		return "", nil, err
	}
	count, err := dec.ReadUvarint()
	if err != nil {
		return "", nil, err
	}
	if count > maxPatchCount {
		return "", nil, errors.New("patch count exceeds frame limit")
	}

	entries = make([]PatchEntry, 0, count)
	for i := uint64(0); i < count; i++ {
		op, err := dec.ReadByte()
		if err != nil {
			return "", nil, err
		}
		e := PatchEntry{Op: vdom.PatchOp(op)}
		nodeID, err := dec.ReadUvarint()
		if err != nil {
			return "", nil, err
		}
		e.NodeID = uint32(nodeID)

		switch e.Op {
		case vdom.OpText:
			if e.Value, err = dec.ReadString(); err != nil {
				return "", nil, err
			}
		case vdom.OpSetAttr:
			if e.Key, err = dec.ReadString(); err != nil {
				return "", nil, err
			}
			if e.Value, err = dec.ReadString(); err != nil {
				return "", nil, err
			}
		case vdom.OpRemoveAttr:
			if e.Key, err = dec.ReadString(); err != nil {
				return "", nil, err
			}
		case vdom.OpInsert:
			parentID, err := dec.ReadUvarint()
			if err != nil {
				return "", nil, err
			}
			beforeID, err := dec.ReadUvarint()
			if err != nil {
				return "", nil, err
			}
			e.ParentID = uint32(parentID)
			e.BeforeID = uint32(beforeID)
			if e.HTML, err = dec.ReadString(); err != nil {
				return "", nil, err
			}
		case vdom.OpMove:
			parentID, err := dec.ReadUvarint()
			if err != nil {
				return "", nil, err
			}
			beforeID, err := dec.ReadUvarint()
			if err != nil {
				return "", nil, err
			}
			e.ParentID = uint32(parentID)
			e.BeforeID = uint32(beforeID)
		case vdom.OpRemove, vdom.OpEvents:
		default:
			return "", nil, errors.New("unknown patch op")
		}

		entries = append(entries, e)
	}

	return markerID, entries, nil
}

// EncodeControl encodes a control frame with optional uvarint params
func EncodeControl(msg string, params ...uint64) []byte {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	enc.WriteBytes([]byte{byte(FrameControl)})
	enc.WriteString(msg)
	for _, p := range params {
		enc.WriteUvarint(p)
	}

	return buf.Bytes()
}
