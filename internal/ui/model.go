package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nowplaying/internal/formatter"
	"github.com/desertthunder/nowplaying/internal/models"
)

const (
	DefaultInterval = 5 * time.Second
	historyLimit    = 20
)

// StatusClient reads a running service. [services.APIService] satisfies it.
type StatusClient interface {
	BaseURL() string
	NowPlaying(ctx context.Context) (string, error)
	Health(ctx context.Context) (*models.HealthReport, error)
}

// Model represents the watch view state.
type Model struct {
	ctx       context.Context
	client    StatusClient
	interval  time.Duration
	status    string
	health    *models.HealthReport
	err       error
	lastFetch time.Time
	fetching  bool
	width     int
	height    int
	history   list.Model
	spinner   spinner.Model
	help      help.Model
	keys      keyMap
}

// NewModel creates a watch model polling client every interval.
func NewModel(ctx context.Context, client StatusClient, interval time.Duration) *Model {
	if interval <= 0 {
		interval = DefaultInterval
	}

	history := list.New(nil, list.NewDefaultDelegate(), 60, 12)
	history.Title = "Recently"
	history.SetShowHelp(false)
	history.SetShowStatusBar(false)

	return &Model{
		ctx:      ctx,
		client:   client,
		interval: interval,
		history:  history,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.ok)),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the spinner and the first fetch.
func (m *Model) Init() tea.Cmd {
	m.fetching = true
	return tea.Batch(m.spinner.Tick, m.fetch())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.history.SetSize(max(msg.Width-4, 0), max(msg.Height-12, 0))
		return m, nil

	case tea.KeyMsg:
		if m.history.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.refresh):
			if m.fetching {
				return m, nil
			}
			m.fetching = true
			return m, m.fetch()
		case key.Matches(msg, m.keys.help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case statusFetchedMsg:
		m.fetching = false
		m.lastFetch = msg.at
		m.err = msg.err
		if msg.err == nil {
			m.health = msg.health
			m.record(msg.status, msg.at)
		}
		return m, m.scheduleTick()

	case tickMsg:
		if m.fetching {
			return m, nil
		}
		m.fetching = true
		return m, m.fetch()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

// record updates the current status and prepends it to the history when it changed.
func (m *Model) record(status string, at time.Time) {
	if status == m.status {
		return
	}
	m.status = status
	m.history.InsertItem(0, statusItem{text: status, seen: at})
	if n := len(m.history.Items()); n > historyLimit {
		m.history.RemoveItem(n - 1)
	}
}

func (m *Model) fetch() tea.Cmd {
	return func() tea.Msg {
		status, err := m.client.NowPlaying(m.ctx)
		if err != nil {
			return statusFetchedMsg{err: err, at: time.Now()}
		}
		health, herr := m.client.Health(m.ctx)
		if herr != nil {
			health = nil
		}
		return statusFetchedMsg{status: status, health: health, at: time.Now()}
	}
}

func (m *Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// View renders the status panel, health line, history and help.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("nowplaying · " + m.client.BaseURL()))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderHealth())
	b.WriteString("\n\n")

	if len(m.history.Items()) > 0 {
		b.WriteString(m.history.View())
		b.WriteString("\n\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderStatus() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("✗ %v", m.err))
	}
	if m.status == "" {
		return m.spinner.View() + " waiting for the service..."
	}

	var text string
	switch {
	case formatter.IsError(m.status):
		text = styles.err.Render(m.status)
	case m.status == formatter.NothingPlayingText, m.status == formatter.Sentinel:
		text = styles.warn.Render(m.status)
	default:
		text = styles.ok.Render("♪ " + m.status)
	}
	return styles.status.Render(text)
}

func (m *Model) renderHealth() string {
	fetched := "never"
	if !m.lastFetch.IsZero() {
		fetched = m.lastFetch.Format(time.TimeOnly)
	}
	indicator := ""
	if m.fetching {
		indicator = " " + m.spinner.View()
	}

	if m.health == nil {
		return styles.muted.Render("checked " + fetched + indicator)
	}

	refresher := styles.ok.Render(m.health.Refresher)
	if m.health.Refresher != models.HealthOK {
		refresher = styles.err.Render(m.health.Refresher)
		if m.health.LastError != "" {
			refresher += styles.muted.Render(" (" + m.health.LastError + ")")
		}
	}
	return fmt.Sprintf("refresher %s  %s%s",
		refresher,
		styles.muted.Render(fmt.Sprintf("publish #%d · checked %s", m.health.Sequence, fetched)),
		indicator,
	)
}
