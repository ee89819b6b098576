package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/recera/pinmap/internal/cache"
	"github.com/recera/pinmap/internal/config"
	"github.com/recera/pinmap/pkg/geom"
	"github.com/recera/pinmap/pkg/live"
	"github.com/recera/pinmap/pkg/overlay"
	"github.com/recera/pinmap/pkg/styling"
)

func newServeCommand() *cobra.Command {
	var (
		projectPath string
		addr        string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live placement server",
		Long: `Serve loads pinmap.yaml, opens the WebSocket endpoint and streams popup
placement frames to connected clients. Edits to pinmap.yaml are picked up
without a restart; new sessions see the updated marker set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(projectPath, addr)
		},
	}

	cmd.Flags().StringVarP(&projectPath, "path", "p", ".", "Directory containing pinmap.yaml")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")

	return cmd
}

func runServe(projectPath, addr string) error {
	cfg, err := config.Load(projectPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr == "" {
		addr = cfg.Server.Addr()
	}

	renderCache := cache.New(cache.Config{
		MaxBytes: cfg.Cache.MaxBytes,
		MaxAge:   cfg.Cache.MaxAge,
	})
	defer renderCache.Close()

	server := live.NewServer(toSessionConfig(cfg), renderCache)

	mux := http.NewServeMux()
	mux.Handle(live.PathPrefix, server)
	mux.HandleFunc("/pinmap.css", styling.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok %d sessions\n", server.SessionCount())
	})

	httpServer := &http.Server{Addr: addr, Handler: mux}

	watchDone := make(chan struct{})
	go watchConfig(projectPath, server, watchDone)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[serve] listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		close(watchDone)
		return err
	case sig := <-sigCh:
		log.Printf("[serve] received %v, shutting down", sig)
	}
	close(watchDone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

// watchConfig reloads pinmap.yaml when it changes, debouncing editor save
// bursts.
func watchConfig(projectPath string, server *live.Server, done <-chan struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("[serve] config watcher unavailable: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(projectPath); err != nil {
		log.Printf("[serve] cannot watch %s: %v", projectPath, err)
		return
	}

	debounce := time.NewTimer(0)
	<-debounce.C
	dirty := false

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != "pinmap.yaml" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			dirty = true
			debounce.Reset(100 * time.Millisecond)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[serve] watcher error: %v", err)

		case <-debounce.C:
			if !dirty {
				continue
			}
			dirty = false
			cfg, err := config.Load(projectPath)
			if err != nil {
				log.Printf("[serve] config reload failed: %v", err)
				continue
			}
			server.UpdateConfig(toSessionConfig(cfg))
			log.Printf("[serve] config reloaded: %d markers", len(cfg.Markers))

		case <-done:
			return
		}
	}
}

func toSessionConfig(cfg *config.Config) live.SessionConfig {
	markers := make([]live.Marker, 0, len(cfg.Markers))
	for _, m := range cfg.Markers {
		markers = append(markers, live.Marker{
			ID:     m.ID,
			LngLat: m.LngLat(),
			Title:  m.Title,
			Body:   m.Body,
		})
	}

	return live.SessionConfig{
		Viewport: geom.Size{Width: cfg.Map.Width, Height: cfg.Map.Height},
		Center:   cfg.Map.CenterLngLat(),
		Zoom:     cfg.Map.Zoom,
		Popup: overlay.Options{
			MaxWidth:     cfg.Popup.MaxWidth,
			CloseButton:  *cfg.Popup.CloseButton,
			CloseOnClick: *cfg.Popup.CloseOnClick,
		},
		Markers: markers,
	}
}
