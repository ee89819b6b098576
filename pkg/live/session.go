package live

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/recera/pinmap/internal/cache"
	"github.com/recera/pinmap/pkg/components"
	"github.com/recera/pinmap/pkg/dom"
	"github.com/recera/pinmap/pkg/frame"
	"github.com/recera/pinmap/pkg/geom"
	"github.com/recera/pinmap/pkg/overlay"
	"github.com/recera/pinmap/pkg/renderer/html"
	"github.com/recera/pinmap/pkg/surface"
	"github.com/recera/pinmap/pkg/vdom"
)

// Marker is a pin a client can open a popup for
type Marker struct {
	ID     string
	LngLat geom.LngLat
	Title  string
	Body   string
}

// SessionConfig sets up the server-side document a session drives
type SessionConfig struct {
	Viewport geom.Size
	Center   geom.LngLat
	Zoom     float64
	Popup    overlay.Options
	Markers  []Marker
}

// Session is one connected client: a server-side document, map surface and
// overlay driven by the client's interaction events. Placement updates
// stream back as position frames.
type Session struct {
	ID string

	mu       sync.Mutex
	conn     *websocket.Conn
	sendChan chan []byte
	closeCh  chan struct{}
	lastSeq  uint64

	doc     *dom.Document
	loop    *frame.Loop
	surface *surface.Map
	overlay *overlay.Overlay
	markers  map[string]Marker
	openID   string
	lastBody *vdom.VNode

	popupOpts overlay.Options
	cache     *cache.Cache
}

func newSession(id string, conn *websocket.Conn, cfg SessionConfig, renderCache *cache.Cache) *Session {
	doc := dom.NewDocument(cfg.Viewport)
	loop := frame.NewLoop()
	m := surface.NewMap(doc, geom.Rect{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height}, cfg.Center, cfg.Zoom)

	markers := make(map[string]Marker, len(cfg.Markers))
	for _, mk := range cfg.Markers {
		markers[mk.ID] = mk
	}

	return &Session{
		ID:        id,
		conn:      conn,
		sendChan:  make(chan []byte, 256),
		closeCh:   make(chan struct{}),
		doc:       doc,
		loop:      loop,
		surface:   m,
		overlay:   overlay.New(doc, loop),
		markers:   markers,
		popupOpts: cfg.Popup,
		cache:     renderCache,
	}
}

// handleConnection reads client frames until the connection drops
func (s *Session) handleConnection() {
	var closeOnce sync.Once
	cleanup := func() {
		closeOnce.Do(func() {
			s.conn.Close()
			close(s.closeCh)
		})
	}
	defer cleanup()

	go s.writer()

	s.send(EncodeControl("HELLO", s.lastSeq))

	// Client frames are a few bytes of event payload; anything larger is
	// hostile or corrupt.
	s.conn.SetReadLimit(64 << 10)
	s.conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
		return nil
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[live %s] unexpected close: %v", s.ID, err)
			}
			break
		}
		if messageType != websocket.BinaryMessage || len(data) == 0 {
			continue
		}

		switch MessageType(data[0]) {
		case FrameEvent:
			evt, err := DecodeEvent(data)
			if err != nil {
				log.Printf("[live %s] bad event frame: %v", s.ID, err)
				continue
			}
			s.Apply(evt)
		case FrameControl:
			s.handleControl(data)
		}
	}
}

func (s *Session) handleControl(data []byte) {
	dec := NewDecoder(strings.NewReader(string(data[1:])))
	msg, err := dec.ReadString()
	if err != nil {
		return
	}
	switch msg {
	case "HELLO":
		log.Printf("[live %s] client hello", s.ID)
	case "PING":
		s.send(EncodeControl("PONG"))
	}
}

// writer owns all connection writes, including keepalive pings
func (s *Session) writer() {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-s.sendChan:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				log.Printf("[live %s] write failed: %v", s.ID, err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) send(data []byte) {
	select {
	case s.sendChan <- data:
	default:
		log.Printf("[live %s] send buffer full, dropping frame", s.ID)
	}
}

// Apply mutates the session's document from one client interaction, runs
// the pending frame work and streams the resulting placement.
func (s *Session) Apply(evt *Event) {
	s.mu.Lock()

	switch evt.Type {
	case EventPan:
		s.surface.PanBy(geom.Point{X: evt.DX, Y: evt.DY})
	case EventZoom:
		s.surface.ZoomBy(evt.DX)
	case EventResize:
		s.doc.SetViewport(geom.Size{Width: evt.DX, Height: evt.DY})
		s.surface.SetBounds(geom.Rect{Width: evt.DX, Height: evt.DY})
	case EventScroll:
		s.doc.SetScroll(geom.Point{X: evt.DX, Y: evt.DY})
		s.overlay.Synchronize()
	case EventOpen:
		s.openLocked(evt.MarkerID)
	case EventClose:
		s.overlay.Unmount()
		s.openID = ""
		s.lastBody = nil
	}

	s.loop.Flush()
	pos := s.positionLocked()
	s.mu.Unlock()

	s.send(EncodePosition(pos))
}

// openLocked mounts (or re-targets) the popup on the given marker. The
// first open streams the fully rendered markup; re-targeting an open popup
// streams only the body mutations. Unknown marker ids are ignored.
func (s *Session) openLocked(id string) {
	mk, ok := s.markers[id]
	if !ok {
		log.Printf("[live %s] open for unknown marker %q", s.ID, id)
		return
	}

	next := markerBody(mk)
	wasOpen := s.overlay.Mounted() && s.lastBody != nil

	body := func(requestUpdate func()) *vdom.VNode {
		return markerBody(mk)
	}
	if s.overlay.Mounted() {
		s.overlay.Update(s.surface, mk.LngLat, s.popupOpts, body)
	} else {
		s.overlay.Mount(s.surface, mk.LngLat, s.popupOpts, body)
	}
	s.openID = id

	// The headless document has no layout engine; estimate the content
	// box from the marker text so anchoring has a size to work with.
	if p := s.overlay.Popup(); p != nil && p.Content() != nil {
		p.Content().SetRect(geom.Rect{
			Width:  estimateWidth(mk, s.popupOpts),
			Height: estimateHeight(mk),
		})
	}

	if wasOpen {
		s.send(EncodePatch(id, vdom.Diff(s.lastBody, next)))
	} else {
		s.send(EncodePopup(id, s.renderMarkup(mk)))
	}
	s.lastBody = next
}

// renderMarkup produces the popup's HTML, reusing a cached render when the
// marker content hasn't changed.
func (s *Session) renderMarkup(mk Marker) string {
	opts := s.popupOpts
	key := cache.Key(mk.ID, mk.Title, mk.Body, opts.MaxWidth)
	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			return string(data)
		}
	}

	markup, err := html.RenderToString(markerBody(mk))
	if err != nil {
		log.Printf("[live %s] render failed for marker %q: %v", s.ID, mk.ID, err)
		return ""
	}
	if s.cache != nil {
		s.cache.Put(key, []byte(markup))
	}
	return markup
}

// positionLocked snapshots the popup placement for streaming
func (s *Session) positionLocked() Position {
	s.lastSeq++
	pos := Position{Seq: s.lastSeq}

	p := s.overlay.Popup()
	if p == nil || p.Container() == nil {
		return pos
	}

	rect := p.Container().Rect()
	pos.Open = true
	pos.X = rect.X
	pos.Y = rect.Y
	pos.Width = rect.Width
	pos.Height = rect.Height
	pos.Anchor = string(p.Anchor())
	return pos
}

// Position returns the current placement without applying an event
func (s *Session) Position() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

// OpenMarker returns the id of the marker whose popup is open, if any
func (s *Session) OpenMarker() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.overlay.Mounted() {
		return ""
	}
	return s.openID
}

func markerBody(mk Marker) *vdom.VNode {
	return components.Card(components.CardProps{
		Title:     mk.Title,
		Body:      mk.Body,
		Class:     "pinmap-marker-popup",
		DataAttrs: map[string]string{"marker": mk.ID},
	})
}

func estimateWidth(mk Marker, opts overlay.Options) float64 {
	max := 260.0
	if v, err := strconv.ParseFloat(strings.TrimSuffix(opts.MaxWidth, "px"), 64); err == nil && v > 0 {
		max = v
	}

	longest := len(mk.Title)
	for _, line := range strings.Split(mk.Body, "\n") {
		if len(line) > longest {
			longest = len(line)
		}
	}
	// 7px per character plus padding, capped at the configured max width.
	w := float64(longest)*7 + 24
	if w > max {
		return max
	}
	if w < 80 {
		return 80
	}
	return w
}

func estimateHeight(mk Marker) float64 {
	lines := 0
	if mk.Title != "" {
		lines++
	}
	if mk.Body != "" {
		lines += strings.Count(mk.Body, "\n") + 1
	}
	if lines == 0 {
		lines = 1
	}
	return float64(lines)*20 + 16
}

// String implements fmt.Stringer for log output
func (s *Session) String() string {
	return fmt.Sprintf("session(%s)", s.ID)
}
