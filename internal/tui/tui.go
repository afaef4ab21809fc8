// Package tui provides a Bubble Tea terminal user interface for ffgrab.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ffgrab/internal/config"
	"ffgrab/internal/download"
	"ffgrab/internal/model"
	"ffgrab/internal/playlist"
	"ffgrab/internal/queue"
	"ffgrab/internal/source/httpsource"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	trackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// tracker accumulates pipeline events from worker goroutines so the UI
// can poll them on its own schedule.
type tracker struct {
	mu      sync.Mutex
	total   int
	settled int
	logs    []LogEntry
}

func (t *tracker) onProgress(event download.ProgressEvent) {
	t.mu.Lock()
	t.logs = append(t.logs, LogEntry{Message: event.Message, Level: event.Level})
	if len(t.logs) > 10 {
		t.logs = t.logs[len(t.logs)-10:]
	}
	t.mu.Unlock()
}

func (t *tracker) onJob(job *queue.Job) {
	switch job.Status {
	case queue.StatusCompleted, queue.StatusFailed, queue.StatusSkipped:
		t.mu.Lock()
		t.settled++
		t.mu.Unlock()
	}
}

func (t *tracker) snapshot() (settled, total int, logs []LogEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settled, t.total, append([]LogEntry(nil), t.logs...)
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	cfg       *config.Config
	err       error

	ctx    context.Context
	cancel context.CancelFunc

	manager *download.Manager
	tracker *tracker
	queued  []string
	summary download.Summary

	// Options
	externalCover bool
	makePlaylist  bool
	verbose       bool

	width  int
	height int
}

// NewModel creates a new TUI model bound to a validated configuration.
func NewModel(cfg *config.Config) Model {
	ti := textinput.New()
	ti.Placeholder = "album/6QaVfG1pHYl1z15ZxkvVDW"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		cfg:       cfg,
		tracker:   &tracker{},
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// InitDoneMsg is sent when track resolution completes.
	InitDoneMsg struct {
		Queued  []string
		Manager *download.Manager
		Err     error
	}

	// DownloadDoneMsg is sent when all jobs settle.
	DownloadDoneMsg struct {
		Summary download.Summary
		Err     error
	}

	// TickMsg drives periodic progress refreshes.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateInitializing {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && m.textInput.Value() != "" {
				m.state = StateInitializing
				return m, tea.Batch(m.initializeDownload(), m.spinner.Tick)
			}

		case "c":
			if m.state == StateInput {
				m.externalCover = !m.externalCover
			}

		case "p":
			if m.state == StateInput {
				m.makePlaylist = !m.makePlaylist
			}

		case "v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for a new download
				m.state = StateInput
				m.queued = nil
				m.err = nil
				m.manager = nil
				m.tracker = &tracker{}
				m.summary = download.Summary{}
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case InitDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.queued = msg.Queued
			m.manager = msg.Manager
			m.state = StateDownloading
			cmds = append(cmds, m.startDownload(), m.tickProgress())
		}

	case DownloadDoneMsg:
		m.summary = msg.Summary
		if msg.Err != nil && m.ctx.Err() == nil {
			m.state = StateError
			m.err = msg.Err
		} else if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && m.state == StateDownloading {
			settled, total, _ := m.tracker.snapshot()
			var percent float64
			if total > 0 {
				percent = float64(settled) / float64(total)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ffgrab"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download and transcode tracks"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter a track, album, or playlist:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	coverCheck := "[ ]"
	if m.externalCover {
		coverCheck = "[x]"
	}
	playlistCheck := "[ ]"
	if m.makePlaylist {
		playlistCheck = "[x]"
	}
	verboseCheck := "[ ]"
	if m.verbose {
		verboseCheck = "[x]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Save cover art next to files (c)\n", coverCheck))
	b.WriteString(fmt.Sprintf("  %s Create playlist (p)\n", playlistCheck))
	b.WriteString(fmt.Sprintf("  %s Verbose output (v)\n", verboseCheck))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output template: %s", m.cfg.Output)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Resolving tracks..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	settled, total, logs := m.tracker.snapshot()

	if len(m.queued) > 0 {
		b.WriteString(successStyle.Render(fmt.Sprintf("Queued %d track(s):", len(m.queued))))
		b.WriteString("\n")
		shown := m.queued
		if len(shown) > 5 {
			shown = shown[:5]
		}
		for _, title := range shown {
			b.WriteString(trackStyle.Render("  - " + title))
			b.WriteString("\n")
		}
		if len(m.queued) > len(shown) {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  ... and %d more", len(m.queued)-len(shown))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	var percent float64
	if total > 0 {
		percent = float64(settled) / float64(total)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("Tracks: %d/%d", settled, total)))
	b.WriteString("\n\n")
	b.WriteString(renderLogLines(logs, m.verbose))

	return b.String()
}

func (m Model) viewComplete() string {
	box := boxStyle.Render(fmt.Sprintf(
		"Download complete\n\n"+
			"Completed: %d\n"+
			"Skipped: %d\n"+
			"Failed: %d",
		m.summary.Completed,
		m.summary.Skipped,
		m.summary.Failed,
	))
	return box
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString("  " + m.err.Error())
	}

	return b.String()
}

func (m Model) renderLogs() string {
	_, _, logs := m.tracker.snapshot()
	return renderLogLines(logs, m.verbose)
}

func renderLogLines(logs []LogEntry, verbose bool) string {
	var b strings.Builder

	for _, log := range logs {
		if log.Level == download.LevelVerbose && !verbose {
			continue
		}
		var style lipgloss.Style
		prefix := "*"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "x"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "+"
		case download.LevelInfo:
			style = infoStyle
			prefix = ">"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start | c: cover art | p: playlist | v: verbose | esc: quit"
	case StateInitializing, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download | q: quit"
	}
	return ""
}

// initializeDownload resolves the resource and builds the manager.
func (m *Model) initializeDownload() tea.Cmd {
	ref := m.textInput.Value()
	tracker := m.tracker
	cfg := m.cfg
	ctx := m.ctx
	externalCover := m.externalCover
	makePlaylist := m.makePlaylist

	return func() tea.Msg {
		kind, id, err := model.ParseResource(ref)
		if err != nil {
			return InitDoneMsg{Err: err}
		}

		opts := download.Options{
			Config:     cfg,
			Source:     httpsource.New(cfg.SourceURL, cfg.Username, cfg.Password),
			OnProgress: tracker.onProgress,
		}
		if externalCover {
			opts.ExternalCoverArt = "cover.jpg"
		}
		if makePlaylist {
			opts.Playlist = playlist.NewWriter(playlist.FormatM3U, true, cfg.ArtistsSeparator)
		}

		manager, err := download.NewManager(opts)
		if err != nil {
			return InitDoneMsg{Err: err}
		}
		manager.Notify(tracker.onJob)

		if err := manager.Initialize(ctx, kind, id); err != nil {
			return InitDoneMsg{Err: err}
		}

		jobs := manager.Jobs()
		queued := make([]string, len(jobs))
		for i, job := range jobs {
			queued[i] = strings.Join(job.Track.Artists, cfg.ArtistsSeparator) + " - " + job.Track.Title
		}
		tracker.mu.Lock()
		tracker.total = len(jobs)
		tracker.mu.Unlock()

		return InitDoneMsg{Queued: queued, Manager: manager}
	}
}

// startDownload runs the pipeline in the background.
func (m *Model) startDownload() tea.Cmd {
	manager := m.manager
	ctx := m.ctx

	return func() tea.Msg {
		if manager == nil {
			return DownloadDoneMsg{Err: fmt.Errorf("no manager")}
		}
		manager.Run(ctx)
		return DownloadDoneMsg{Summary: manager.Summarize()}
	}
}

// Run starts the TUI application.
func Run(cfg *config.Config) error {
	p := tea.NewProgram(NewModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
