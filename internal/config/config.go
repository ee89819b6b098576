// Package config loads the pinmap.yaml configuration consumed by the
// serve command: listen address, initial map viewport, popup behavior and
// the marker set served to clients.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/recera/pinmap/pkg/geom"
)

// Config represents the pinmap.yaml configuration
type Config struct {
	// Server listen configuration
	Server *ServerConfig `yaml:"server,omitempty"`

	// Initial map viewport
	Map *MapConfig `yaml:"map,omitempty"`

	// Popup behavior defaults
	Popup *PopupConfig `yaml:"popup,omitempty"`

	// Render cache tuning
	Cache *CacheConfig `yaml:"cache,omitempty"`

	// Markers placed on the map at startup
	Markers []MarkerConfig `yaml:"markers,omitempty"`
}

// ServerConfig contains the listen address for the live server
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// Addr returns the host:port listen address
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MapConfig contains the initial map viewport
type MapConfig struct {
	// Center as [lng, lat]
	Center []float64 `yaml:"center,omitempty"`

	Zoom   float64 `yaml:"zoom,omitempty"`
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`
}

// CenterLngLat returns the configured center as a coordinate, falling back
// to the (0,0) default for missing or invalid values.
func (m *MapConfig) CenterLngLat() geom.LngLat {
	if len(m.Center) != 2 {
		return geom.LngLat{}
	}
	return geom.LngLatFromArray([2]float64{m.Center[0], m.Center[1]}).OrDefault()
}

// PopupConfig contains popup behavior defaults
type PopupConfig struct {
	MaxWidth     string `yaml:"maxWidth,omitempty"`
	CloseButton  *bool  `yaml:"closeButton,omitempty"`
	CloseOnClick *bool  `yaml:"closeOnClick,omitempty"`
}

// CacheConfig contains render cache tuning
type CacheConfig struct {
	MaxBytes int64         `yaml:"maxBytes,omitempty"`
	MaxAge   time.Duration `yaml:"maxAge,omitempty"`
}

// MarkerConfig is a single marker placed on the map
type MarkerConfig struct {
	ID    string  `yaml:"id"`
	Lng   float64 `yaml:"lng"`
	Lat   float64 `yaml:"lat"`
	Title string  `yaml:"title,omitempty"`
	Body  string  `yaml:"body,omitempty"`
}

// LngLat returns the marker's coordinate
func (m MarkerConfig) LngLat() geom.LngLat {
	return geom.NewLngLat(m.Lng, m.Lat)
}

// Load loads configuration from pinmap.yaml in projectPath. A missing file
// yields the defaults.
func Load(projectPath string) (*Config, error) {
	configPath := filepath.Join(projectPath, "pinmap.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Save saves configuration to pinmap.yaml in projectPath
func Save(config *Config, projectPath string) error {
	configPath := filepath.Join(projectPath, "pinmap.yaml")

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	on := true
	off := false
	return &Config{
		Server: &ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Map: &MapConfig{
			Center: []float64{0, 0},
			Zoom:   2,
			Width:  1024,
			Height: 768,
		},
		Popup: &PopupConfig{
			MaxWidth:     "260px",
			CloseButton:  &on,
			CloseOnClick: &off,
		},
		Cache: &CacheConfig{
			MaxBytes: 16 << 20,
			MaxAge:   time.Hour,
		},
	}
}

// applyDefaults fills missing values from DefaultConfig
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.Server == nil {
		config.Server = defaults.Server
	} else {
		if config.Server.Host == "" {
			config.Server.Host = defaults.Server.Host
		}
		if config.Server.Port == 0 {
			config.Server.Port = defaults.Server.Port
		}
	}

	if config.Map == nil {
		config.Map = defaults.Map
	} else {
		if config.Map.Center == nil {
			config.Map.Center = defaults.Map.Center
		}
		if config.Map.Width == 0 {
			config.Map.Width = defaults.Map.Width
		}
		if config.Map.Height == 0 {
			config.Map.Height = defaults.Map.Height
		}
	}

	if config.Popup == nil {
		config.Popup = defaults.Popup
	} else {
		if config.Popup.MaxWidth == "" {
			config.Popup.MaxWidth = defaults.Popup.MaxWidth
		}
		if config.Popup.CloseButton == nil {
			config.Popup.CloseButton = defaults.Popup.CloseButton
		}
		if config.Popup.CloseOnClick == nil {
			config.Popup.CloseOnClick = defaults.Popup.CloseOnClick
		}
	}

	if config.Cache == nil {
		config.Cache = defaults.Cache
	} else {
		if config.Cache.MaxBytes == 0 {
			config.Cache.MaxBytes = defaults.Cache.MaxBytes
		}
		if config.Cache.MaxAge == 0 {
			config.Cache.MaxAge = defaults.Cache.MaxAge
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if len(c.Map.Center) != 0 && len(c.Map.Center) != 2 {
		return fmt.Errorf("map center must be [lng, lat], got %d values", len(c.Map.Center))
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 22 {
		return fmt.Errorf("map zoom %v out of range [0, 22]", c.Map.Zoom)
	}
	seen := make(map[string]struct{}, len(c.Markers))
	for _, m := range c.Markers {
		if m.ID == "" {
			return fmt.Errorf("marker at (%v, %v) has no id", m.Lng, m.Lat)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("duplicate marker id %q", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}
