// Package live streams popup placement over WebSocket. Each connected
// client gets a server-side document with a map surface and overlay;
// interaction events from the client drive the document, and the resulting
// popup geometry streams back as binary frames.
package live

import (
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/recera/pinmap/internal/cache"
)

// PathPrefix is the WebSocket endpoint prefix; the session id follows it
const PathPrefix = "/pinmap/live/"

// Server upgrades WebSocket connections and manages sessions
type Server struct {
	upgrader websocket.Upgrader
	sessions map[string]*Session
	mu       sync.RWMutex

	config SessionConfig
	cache  *cache.Cache
}

// NewServer creates a live server. Sessions are seeded from config; the
// render cache is shared across sessions and may be nil.
func NewServer(config SessionConfig, renderCache *cache.Cache) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origins once the embedding story settles
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: make(map[string]*Session),
		config:   config,
		cache:    renderCache,
	}
}

// UpdateConfig swaps the seed configuration for future sessions; existing
// sessions keep their current document.
func (s *Server) UpdateConfig(config SessionConfig) {
	s.mu.Lock()
	s.config = config
	s.mu.Unlock()
}

// ServeHTTP implements http.Handler for the live endpoint
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.HandleWebSocket(w, r)
}

// HandleWebSocket upgrades the connection and attaches it to a session
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, PathPrefix)
	if sessionID == "" || sessionID == r.URL.Path {
		http.Error(w, "session id required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[live] upgrade failed: %v", err)
		return
	}

	session := s.getOrCreateSession(sessionID, conn)
	go session.handleConnection()
}

// getOrCreateSession returns the session for an id, reattaching the
// connection when a client reconnects.
func (s *Server) getOrCreateSession(sessionID string, conn *websocket.Conn) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, exists := s.sessions[sessionID]; exists {
		session.mu.Lock()
		if session.conn != nil {
			session.conn.Close()
		}
		session.conn = conn
		select {
		case <-session.closeCh:
			session.closeCh = make(chan struct{})
		default:
		}
		session.mu.Unlock()
		return session
	}

	session := newSession(sessionID, conn, s.config, s.cache)
	s.sessions[sessionID] = session
	return session
}

// GetSession retrieves a session by id
func (s *Server) GetSession(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

// RemoveSession drops a session and unmounts its overlay
func (s *Server) RemoveSession(sessionID string) {
	s.mu.Lock()
	session, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if exists {
		session.mu.Lock()
		session.overlay.Unmount()
		session.mu.Unlock()
	}
}

// SessionCount returns the number of live sessions
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
