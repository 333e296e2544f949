// Package tui is a terminal dashboard client for the turtlefleet server.
// It is a pure HTTP client of the boundary adapters: it polls GET
// /world_data and renders what it gets back. It holds no core state.
package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#55a630")).
			MarginBottom(1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(0, 1)

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4444"))
)

// turtle is a single agent row as rendered by the dashboard.
type turtle struct {
	ID      string
	X, Y, Z int
	Dir     string
	Queue   int
}

// worldData mirrors the GET /world_data response shape.
type worldData struct {
	Turtles map[string]struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Z     int    `json:"z"`
		Dir   string `json:"dir"`
		Queue int    `json:"queue"`
	} `json:"turtles"`
	Blocks []struct {
		Color string `json:"color"`
	} `json:"blocks"`
}

type tickMsg time.Time
type dataMsg struct {
	turtles     []turtle
	blockColors map[string]int
	err         error
}

var turtleColumns = []table.Column{
	{Title: "ID", Width: 6},
	{Title: "X", Width: 6},
	{Title: "Y", Width: 6},
	{Title: "Z", Width: 6},
	{Title: "DIR", Width: 8},
	{Title: "QUEUE", Width: 6},
}

// Dashboard is the Bubble Tea model for the operator terminal view.
type Dashboard struct {
	client      *http.Client
	baseURL     string
	table       table.Model
	blockColors map[string]int
	lastErr     error
	quitting    bool
}

// New builds a dashboard client polling the server at baseURL (e.g.
// "http://127.0.0.1:5000").
func New(baseURL string) Dashboard {
	t := table.New(
		table.WithColumns(turtleColumns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	return Dashboard{
		client:      &http.Client{Timeout: 5 * time.Second},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		table:       t,
		blockColors: make(map[string]int),
	}
}

func (m Dashboard) Init() tea.Cmd {
	return tea.Batch(m.fetch, tickCmd())
}

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.fetch
		}
	case tickMsg:
		return m, tea.Batch(m.fetch, tickCmd())
	case dataMsg:
		m.lastErr = msg.err
		if msg.err == nil {
			m.table.SetRows(toRows(msg.turtles))
			m.blockColors = msg.blockColors
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func toRows(turtles []turtle) []table.Row {
	rows := make([]table.Row, len(turtles))
	for i, t := range turtles {
		rows[i] = table.Row{
			t.ID,
			strconv.Itoa(t.X), strconv.Itoa(t.Y), strconv.Itoa(t.Z),
			t.Dir, strconv.Itoa(t.Queue),
		}
	}
	return rows
}

func (m Dashboard) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("turtlefleet dashboard"))
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString(errStyle.Render("fetch error: " + m.lastErr.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(boxStyle.Render(fmt.Sprintf("%d agents  |  %d known block colors", len(m.table.Rows()), len(m.blockColors))))
	b.WriteString("\n\n")

	if len(m.table.Rows()) == 0 {
		b.WriteString(footerStyle.Render("  No agents registered."))
	} else {
		b.WriteString(m.table.View())
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render(fmt.Sprintf("  [r] refresh  [q] quit  |  Updated: %s", time.Now().Format("15:04:05"))))
	return b.String()
}

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Dashboard) fetch() tea.Msg {
	resp, err := m.client.Get(m.baseURL + "/world_data")
	if err != nil {
		return dataMsg{err: err}
	}
	defer resp.Body.Close()

	var wd worldData
	if err := json.NewDecoder(resp.Body).Decode(&wd); err != nil {
		return dataMsg{err: err}
	}

	turtles := make([]turtle, 0, len(wd.Turtles))
	for id, t := range wd.Turtles {
		turtles = append(turtles, turtle{ID: id, X: t.X, Y: t.Y, Z: t.Z, Dir: t.Dir, Queue: t.Queue})
	}
	sort.Slice(turtles, func(i, j int) bool { return turtles[i].ID < turtles[j].ID })

	colors := make(map[string]int)
	for _, blk := range wd.Blocks {
		colors[blk.Color]++
	}

	return dataMsg{turtles: turtles, blockColors: colors}
}

// Run starts the Bubble Tea dashboard against the server at baseURL.
func Run(baseURL string) error {
	p := tea.NewProgram(New(baseURL), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
