package live

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Client is the Go-side consumer of the live protocol, used by the demo
// TUI and by tests. Frame callbacks run on the client's read goroutine.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}

	onPosition func(Position)
	onPopup    func(markerID, html string)
	onPatch    func(markerID string, entries []PatchEntry)
	onReady    func()
}

// NewClient creates an unconnected client
func NewClient() *Client {
	return &Client{done: make(chan struct{})}
}

// OnPosition sets the placement frame handler
func (c *Client) OnPosition(fn func(Position)) {
	c.mu.Lock()
	c.onPosition = fn
	c.mu.Unlock()
}

// OnPopup sets the popup markup frame handler
func (c *Client) OnPopup(fn func(markerID, html string)) {
	c.mu.Lock()
	c.onPopup = fn
	c.mu.Unlock()
}

// OnPatch sets the popup body mutation frame handler
func (c *Client) OnPatch(fn func(markerID string, entries []PatchEntry)) {
	c.mu.Lock()
	c.onPatch = fn
	c.mu.Unlock()
}

// OnReady sets the handler invoked after the server HELLO
func (c *Client) OnReady(fn func()) {
	c.mu.Lock()
	c.onReady = fn
	c.mu.Unlock()
}

// Connect dials the server and starts the read loop
func (c *Client) Connect(url string) error {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(4 << 20)

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop()
	return nil
}

// SendEvent sends a client interaction to the server
func (c *Client) SendEvent(evt Event) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.WriteMessage(websocket.BinaryMessage, EncodeEvent(evt))
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// Done is closed when the read loop exits
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.BinaryMessage || len(data) == 0 {
			continue
		}

		c.mu.Lock()
		onPosition, onPopup, onPatch, onReady := c.onPosition, c.onPopup, c.onPatch, c.onReady
		c.mu.Unlock()

		switch MessageType(data[0]) {
		case FramePosition:
			pos, err := DecodePosition(data)
			if err != nil {
				log.Printf("[live client] bad position frame: %v", err)
				continue
			}
			if onPosition != nil {
				onPosition(*pos)
			}
		case FramePopup:
			markerID, html, err := DecodePopup(data)
			if err != nil {
				log.Printf("[live client] bad popup frame: %v", err)
				continue
			}
			if onPopup != nil {
				onPopup(markerID, html)
			}
		case FramePatch:
			markerID, entries, err := DecodePatch(data)
			if err != nil {
				log.Printf("[live client] bad patch frame: %v", err)
				continue
			}
			if onPatch != nil {
				onPatch(markerID, entries)
			}
		case FrameControl:
			if onReady != nil {
				onReady()
			}
		}
	}
}
