package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/recera/pinmap/internal/config"
	"github.com/recera/pinmap/pkg/geom"
	"github.com/recera/pinmap/pkg/overlay"
	"github.com/recera/pinmap/pkg/pinmap"
	"github.com/recera/pinmap/pkg/vdom"
)

func newDemoCommand() *cobra.Command {
	var projectPath string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Drive a local map with pinned popups in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(projectPath)
			if err != nil {
				return err
			}
			p := tea.NewProgram(newDemoModel(cfg), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&projectPath, "path", "p", ".", "Directory containing pinmap.yaml")

	return cmd
}

// Styles
var (
	accentFg   = lipgloss.Color("#7C3AED")
	dimFg      = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	borderCol  = lipgloss.Color("#243141")
	titleStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(dimFg)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	popupStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(accentFg).Padding(0, 1)
	pinStyle   = lipgloss.NewStyle().Foreground(accentFg)
)

type demoModel struct {
	app     *pinmap.App
	markers []config.MarkerConfig
	popup   overlay.Options

	selected    int
	width       int
	height      int
	status      string
	showSidebar bool
	l           list.Model
}

type markerItem struct {
	cfg config.MarkerConfig
	idx int
}

func (i markerItem) Title() string       { return i.cfg.Title }
func (i markerItem) Description() string { return i.cfg.ID }
func (i markerItem) FilterValue() string { return i.cfg.Title + " " + i.cfg.ID }

func newDemoModel(cfg *config.Config) demoModel {
	viewport := geom.Size{Width: cfg.Map.Width, Height: cfg.Map.Height}
	app := pinmap.New(viewport, cfg.Map.CenterLngLat(), cfg.Map.Zoom)

	items := make([]list.Item, len(cfg.Markers))
	for i, mk := range cfg.Markers {
		items[i] = markerItem{cfg: mk, idx: i}
	}
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	l := list.New(items, d, 0, 0)
	l.Title = "Markers"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return demoModel{
		app:     app,
		markers: cfg.Markers,
		popup: overlay.Options{
			MaxWidth:     cfg.Popup.MaxWidth,
			CloseButton:  *cfg.Popup.CloseButton,
			CloseOnClick: *cfg.Popup.CloseOnClick,
		},
		status: "ready",
		l:      l,
	}
}

func (m demoModel) Init() tea.Cmd { return nil }

func (m demoModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.showSidebar {
			switch msg.String() {
			case "esc", "m":
				m.showSidebar = false
				return m, nil
			case "enter":
				if it, ok := m.l.SelectedItem().(markerItem); ok {
					m.selected = it.idx
					m.openSelected()
					m.showSidebar = false
					m.app.Loop().Flush()
				}
				return m, nil
			}
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "m":
			m.showSidebar = true
			m.l.SetSize(32, m.height-4)
		case "up":
			m.app.Map().PanBy(geom.Point{Y: -40})
			m.status = "pan north"
		case "down":
			m.app.Map().PanBy(geom.Point{Y: 40})
			m.status = "pan south"
		case "left":
			m.app.Map().PanBy(geom.Point{X: -40})
			m.status = "pan west"
		case "right":
			m.app.Map().PanBy(geom.Point{X: 40})
			m.status = "pan east"
		case "+", "=":
			m.app.Map().ZoomBy(1)
			m.status = fmt.Sprintf("zoom %.0f", m.app.Map().Viewport().Zoom)
		case "-", "_":
			m.app.Map().ZoomBy(-1)
			m.status = fmt.Sprintf("zoom %.0f", m.app.Map().Viewport().Zoom)
		case "tab":
			if len(m.markers) > 0 {
				m.selected = (m.selected + 1) % len(m.markers)
				m.status = "selected " + m.markers[m.selected].ID
			}
		case "enter":
			m.openSelected()
		case "esc", "c":
			m.app.ClosePopup()
			m.status = "popup closed"
		}
	}

	m.app.Loop().Flush()
	return m, nil
}

func (m *demoModel) openSelected() {
	if len(m.markers) == 0 {
		m.status = "no markers configured"
		return
	}
	mk := m.markers[m.selected]

	body := func(req func()) *vdom.VNode {
		kids := []*vdom.VNode{pinmap.H3(nil, pinmap.Text(mk.Title))}
		if mk.Body != "" {
			kids = append(kids, pinmap.P(nil, pinmap.Text(mk.Body)))
		}
		return pinmap.Div(pinmap.Props{"class": "demo-popup"}, kids...)
	}

	m.app.OpenPopup(mk.LngLat(), m.popup, body)
	if content := m.app.Overlay().Popup().Content(); content != nil {
		content.SetRect(geom.Rect{Width: 200, Height: 60})
	}
	m.status = "opened " + mk.ID
}

func (m demoModel) View() string {
	if m.width == 0 {
		return "loading..."
	}

	header := titleStyle.Render("pinmap demo") + dimStyle.Render("  arrows pan · +/- zoom · tab select · m markers · enter open · esc close · q quit")

	if m.showSidebar {
		return lipgloss.JoinVertical(lipgloss.Left, header, boxStyle.Render(m.l.View()))
	}

	mapW := m.width - 4
	mapH := m.height - 8
	if mapW < 20 {
		mapW = 20
	}
	if mapH < 8 {
		mapH = 8
	}

	footer := dimStyle.Render(m.status)
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		boxStyle.Render(m.renderMap(mapW, mapH)),
		m.renderPopupPanel(),
		footer,
	)
}

// renderMap projects markers through the map surface onto a character grid
func (m demoModel) renderMap(cols, rows int) string {
	grid := make([][]rune, rows)
	for y := range grid {
		grid[y] = make([]rune, cols)
		for x := range grid[y] {
			grid[y][x] = '·'
		}
	}

	vp := m.app.Map().Viewport()
	for i, mk := range m.markers {
		pos := m.app.Map().Project(mk.LngLat())
		cx := int(pos.X / vp.Size.Width * float64(cols))
		cy := int(pos.Y / vp.Size.Height * float64(rows))
		if cx < 0 || cy < 0 || cx >= cols || cy >= rows {
			continue
		}
		if i == m.selected {
			grid[cy][cx] = '◉'
		} else {
			grid[cy][cx] = '•'
		}
	}

	lines := make([]string, rows)
	for y, row := range grid {
		lines[y] = pinStyle.Render(string(row))
	}
	return strings.Join(lines, "\n")
}

// renderPopupPanel shows the live placement of the mounted popup
func (m demoModel) renderPopupPanel() string {
	ov := m.app.Overlay()
	if !ov.Mounted() {
		return dimStyle.Render("no popup open")
	}

	p := ov.Popup()
	rect := p.Container().Rect()
	anchor := string(p.Anchor())
	if anchor == "" {
		anchor = "center"
	}

	mk := m.markers[m.selected]
	info := fmt.Sprintf("%s  @ (%.0f, %.0f)  %vx%v  anchor: %s",
		mk.Title, rect.X, rect.Y, rect.Width, rect.Height, anchor)
	return popupStyle.Render(info)
}
