// Package styling collects the CSS a browser client needs to render
// pinned popups. Embedders register their own sheets next to the built-in
// popup styles; the serve command exposes the combined result.
package styling

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Sheet is one registered stylesheet
type Sheet struct {
	// Hash identifies the sheet by content; duplicate registrations collapse
	Hash string
	CSS  string
}

// Style creates a sheet from raw CSS
func Style(css string) *Sheet {
	h := sha256.Sum256([]byte(css))
	return &Sheet{
		Hash: "_" + hex.EncodeToString(h[:])[:6],
		CSS:  css,
	}
}

type registry struct {
	mu     sync.RWMutex
	sheets map[string]*Sheet
}

var globalRegistry = &registry{sheets: make(map[string]*Sheet)}

// Register adds a sheet to the global registry
func Register(sheet *Sheet) {
	if sheet == nil || sheet.CSS == "" {
		return
	}

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.sheets[sheet.Hash] = sheet
}

// GetAllCSS returns all registered CSS as a single string, in stable order
func GetAllCSS() string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	hashes := make([]string, 0, len(globalRegistry.sheets))
	for hash := range globalRegistry.sheets {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	var b strings.Builder
	for _, hash := range hashes {
		b.WriteString(globalRegistry.sheets[hash].CSS)
		b.WriteString("\n")
	}
	return b.String()
}

// Reset clears all registered styles and restores the built-in popup
// sheet. Useful for tests.
func Reset() {
	globalRegistry.mu.Lock()
	globalRegistry.sheets = make(map[string]*Sheet)
	globalRegistry.mu.Unlock()
	Register(Style(popupCSS))
}

// Handler serves the combined stylesheet
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Write([]byte(GetAllCSS()))
	}
}

// popupCSS positions the popup container absolutely and flips the tip
// according to the data-anchor attribute the overlay maintains.
const popupCSS = `.pinmap-portal {
  position: absolute;
  top: 0;
  left: 0;
  pointer-events: none;
}
.pinmap-popup {
  position: absolute;
  transform: translate(-50%, -100%);
  pointer-events: auto;
}
.pinmap-popup-content {
  background: #fff;
  border-radius: 4px;
  box-shadow: 0 1px 4px rgba(0, 0, 0, 0.3);
  padding: 10px 12px;
  overflow-wrap: break-word;
}
.pinmap-popup-tip {
  width: 0;
  height: 0;
  border: 6px solid transparent;
  border-top-color: #fff;
  margin: 0 auto;
}
.pinmap-popup[data-anchor^="top"] {
  transform: translate(-50%, 0);
}
.pinmap-popup[data-anchor^="top"] .pinmap-popup-tip {
  border-top-color: transparent;
  border-bottom-color: #fff;
}
.pinmap-popup[data-anchor$="left"] {
  transform: translate(0, -100%);
}
.pinmap-popup[data-anchor$="right"] {
  transform: translate(-100%, -100%);
}
.pinmap-popup[data-anchor="top-left"] {
  transform: translate(0, 0);
}
.pinmap-popup[data-anchor="top-right"] {
  transform: translate(-100%, 0);
}
.pinmap-popup-close {
  position: absolute;
  top: 2px;
  right: 6px;
  border: none;
  background: transparent;
  cursor: pointer;
}
`

func init() {
	Register(Style(popupCSS))
}
