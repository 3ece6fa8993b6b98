package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ja7ad/procmon/pkg/monitor"
)

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

// headerLines is the height taken by Header, the help line and the table
// border.
const headerLines = 7

// Config controls the interactive view.
type Config struct {
	Sort  SortKey
	Limit int // max rows, 0 for all
}

// Model renders frames from a monitor stream.
type Model struct {
	cfg    Config
	stream <-chan monitor.Frame
	cancel context.CancelFunc

	table  table.Model
	frame  monitor.Frame
	seen   bool
	width  int
	height int
}

type (
	frameMsg  monitor.Frame
	closedMsg struct{}
)

// New returns a Model reading from stream. cancel is called on quit so the
// producer stops.
func New(cfg Config, stream <-chan monitor.Frame, cancel context.CancelFunc) *Model {
	if cfg.Sort == "" {
		cfg.Sort = SortCPU
	}
	t := table.New(
		table.WithColumns(Columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(true)
	t.SetStyles(s)

	return &Model{
		cfg:    cfg,
		stream: stream,
		cancel: cancel,
		table:  t,
		width:  120,
		height: 40,
	}
}

func (m *Model) waitFrame() tea.Cmd {
	stream := m.stream
	return func() tea.Msg {
		f, ok := <-stream
		if !ok {
			return closedMsg{}
		}
		return frameMsg(f)
	}
}

func (m *Model) Init() tea.Cmd { return m.waitFrame() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(max(m.height-headerLines, 3))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quit()
			return m, tea.Quit
		case "c":
			m.setSort(SortCPU)
			return m, nil
		case "m":
			m.setSort(SortMem)
			return m, nil
		case "p":
			m.setSort(SortPID)
			return m, nil
		case "t":
			m.setSort(SortTime)
			return m, nil
		}
	case frameMsg:
		m.frame, m.seen = monitor.Frame(msg), true
		m.refresh()
		return m, m.waitFrame()
	case closedMsg:
		m.quit()
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) quit() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Model) setSort(k SortKey) {
	m.cfg.Sort = k
	m.refresh()
}

// refresh rebuilds the table rows from the current frame.
func (m *Model) refresh() {
	rows := Rows(m.frame.Rows, m.cfg.Sort, m.cfg.Limit)
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		row := FormatRow(r)
		row[len(row)-1] = truncate(row[len(row)-1], Columns[len(Columns)-1].Width)
		out = append(out, row)
	}
	m.table.SetRows(out)
}

func (m *Model) View() string {
	if !m.seen {
		return subtleStyle.Render("sampling…") + "\n"
	}
	help := subtleStyle.Render(fmt.Sprintf("sort: %s  [c]pu [m]em [p]id [t]ime  [q]uit", m.cfg.Sort))
	return lipgloss.JoinVertical(lipgloss.Left,
		Header(m.frame.System, 24),
		baseStyle.Render(m.table.View()),
		help,
	) + "\n"
}

// Rows returns a sorted copy of rows cut to limit (0 keeps all).
func Rows(rows []monitor.Row, key SortKey, limit int) []monitor.Row {
	out := make([]monitor.Row, len(rows))
	copy(out, rows)
	SortRows(out, key)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Run starts the interactive view over frames polled every interval and
// blocks until the user quits or ctx is done.
func Run(ctx context.Context, mon *monitor.Monitor, interval time.Duration, cfg Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(New(cfg, mon.Stream(ctx, interval), cancel), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
