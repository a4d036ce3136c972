package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/smqueue/internal/prefs"
	"github.com/five82/smqueue/internal/state"
	"github.com/five82/smqueue/internal/volume"
)

// Tab is one of the top-level views.
type Tab int

const (
	TabQueue Tab = iota
	TabHistory
	TabLog
	TabHelp
)

var tabNames = []string{"Queue", "History", "Log", "Help"}

func (t Tab) String() string {
	if int(t) < len(tabNames) {
		return tabNames[t]
	}
	return "Queue"
}

// ParseTab maps a preference value such as "history" to a Tab.
func ParseTab(name string) Tab {
	for i, n := range tabNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Tab(i)
		}
	}
	return TabQueue
}

// Commander sends queue and playback commands to the daemon.
type Commander interface {
	AddEntry(ctx context.Context, input string, priority uint64, raw bool) (string, error)
	Start(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Skip(ctx context.Context) error
	Clear(ctx context.Context) error
	Promote(ctx context.Context, id uint64) error
	Remove(ctx context.Context, id uint64) error
	Unreachable() bool
}

// VolumeControl is the mixer model shown in the header.
type VolumeControl interface {
	Read(ctx context.Context) (volume.Levels, error)
	Increment(ctx context.Context, steps int) error
	Decrement(ctx context.Context, steps int) error
	NormalizedLoudness() float64
	Description() string
	Changed() <-chan struct{}
}

// HistoryPager moves the loaded history window.
type HistoryPager interface {
	NextPage() error
	PrevPage() error
}

// Options configures the UI.
type Options struct {
	Context         context.Context
	Client          Commander
	Store           *state.Store
	History         *state.HistoryStore
	Pager           HistoryPager
	Volume          VolumeControl // nil disables volume keys
	VolumeErr       error         // why Volume is nil, shown once
	LogPath         string
	Tick            time.Duration
	DefaultPriority uint64
	VolumeStep      int
	ThemeName       string
	StartTab        string
	PrefsPath       string
	Logger          zerolog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    Commander
	store     *state.Store
	history   *state.HistoryStore
	pager     HistoryPager
	volume    VolumeControl
	logPath   string
	prefsPath string
	tick      time.Duration
	priority  uint64
	step      int
	log       zerolog.Logger
	keys      keyMap

	// UI state
	theme  Theme
	tab    Tab
	width  int
	height int
	ready  bool

	// Data state
	snapshot      state.Snapshot
	historyPage   state.HistoryPage
	queueCursor   TabsElement
	historyCursor TabsElement
	volumeDesc    string
	loudness      float64
	volumeErr     error

	// Widgets
	playGauge   progress.Model
	volumeGauge progress.Model
	logView     viewport.Model
	prompt      textinput.Model
	prompting   bool
	promptRaw   bool

	// pendingKey is the most recent key since the last tick.
	pendingKey *tea.KeyMsg

	status    string
	statusErr bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	step := opts.VolumeStep
	if step <= 0 {
		step = 1
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Defaults().Theme
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	history := opts.History
	if history == nil {
		history = &state.HistoryStore{}
	}

	prompt := textinput.New()
	prompt.CharLimit = 4096

	m := Model{
		ctx:           ctx,
		client:        opts.Client,
		store:         store,
		history:       history,
		pager:         opts.Pager,
		volume:        opts.Volume,
		volumeErr:     opts.VolumeErr,
		logPath:       opts.LogPath,
		prefsPath:     opts.PrefsPath,
		tick:          tick,
		priority:      opts.DefaultPriority,
		step:          step,
		log:           opts.Logger.With().Str("component", "ui").Logger(),
		keys:          DefaultKeyMap(),
		theme:         GetTheme(themeName),
		tab:           ParseTab(opts.StartTab),
		queueCursor:   TabsElement{Name: "queue"},
		historyCursor: TabsElement{Name: "history"},
		prompt:        prompt,
		logView:       viewport.New(0, 0),
	}
	m.applyTheme()
	m.refreshQueue()
	m.refreshHistory()
	m.refreshVolume()
	if m.volumeErr != nil {
		m.setError("volume unavailable: " + m.volumeErr.Error())
	}
	return m
}

func (m *Model) applyTheme() {
	m.playGauge = progress.New(progress.WithSolidFill(m.theme.Success), progress.WithoutPercentage())
	m.volumeGauge = progress.New(progress.WithSolidFill(m.theme.Accent), progress.WithoutPercentage())
	m.prompt.PromptStyle = m.theme.Styles().AccentText
	m.resize()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.tick),
		m.waitForChange(),
	}
	if m.tab == TabLog {
		cmds = append(cmds, readLogCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.prompting {
			return m.handlePromptKey(msg)
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// Key repeat can outpace redraws; only the newest key since the
		// last tick is acted on.
		m.pendingKey = &msg
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		var cmds []tea.Cmd
		if m.pendingKey != nil {
			k := *m.pendingKey
			m.pendingKey = nil
			var cmd tea.Cmd
			var quit bool
			m, cmd, quit = m.handleKey(k)
			if quit {
				return m, tea.Quit
			}
			cmds = append(cmds, cmd)
		}
		if m.tab == TabLog {
			cmds = append(cmds, readLogCmd(m.logPath))
		}
		cmds = append(cmds, tickCmd(m.tick))
		return m, tea.Batch(cmds...)

	case changeMsg:
		cmds := []tea.Cmd{m.waitForChange()}
		switch msg.source {
		case sourceState:
			m.refreshQueue()
		case sourceHistory:
			m.refreshHistory()
		case sourceVolume:
			cmds = append(cmds, m.readVolumeCmd())
		}
		return m, tea.Batch(cmds...)

	case commandMsg:
		if msg.err != nil {
			m.setError(msg.err.Error())
		} else if msg.feedback != "" {
			m.setStatus(msg.feedback)
		}
		return m, nil

	case volumeMsg:
		if msg.err != nil {
			m.setError(msg.err.Error())
		}
		m.refreshVolume()
		return m, nil

	case logMsg:
		m.setLogLines(msg)
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) resize() {
	if m.width <= 0 {
		return
	}
	gaugeWidth := max(10, m.width-28)
	m.playGauge.Width = gaugeWidth
	m.volumeGauge.Width = gaugeWidth
	m.prompt.Width = max(10, m.width-20)
	m.logView.Width = m.width
	m.logView.Height = m.contentHeight()
}

func (m Model) contentHeight() int {
	return max(1, m.height-headerLines-footerLines)
}

func (m *Model) refreshQueue() {
	m.snapshot = m.store.Snapshot()
	m.queueCursor.SetSize(len(m.snapshot.Entries))
}

func (m *Model) refreshHistory() {
	m.historyPage = m.history.Page()
	m.historyCursor.SetSize(len(m.historyPage.Entries))
}

func (m *Model) refreshVolume() {
	if m.volume == nil {
		return
	}
	m.volumeDesc = m.volume.Description()
	m.loudness = m.volume.NormalizedLoudness()
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

// handleKey dispatches one coalesced key. It reports whether to quit.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, nil, true
	case key.Matches(msg, k.Help), key.Matches(msg, k.TabHelp):
		m.tab = TabHelp
	case key.Matches(msg, k.TabQueue):
		m.tab = TabQueue
	case key.Matches(msg, k.TabHistory):
		m.tab = TabHistory
	case key.Matches(msg, k.TabLog):
		m.tab = TabLog
		return m, readLogCmd(m.logPath), false
	case key.Matches(msg, k.NextTab):
		m.tab = (m.tab + 1) % Tab(len(tabNames))
	case key.Matches(msg, k.PrevTab):
		m.tab = (m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
	case key.Matches(msg, k.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTheme()
		if m.prefsPath != "" {
			name := m.theme.Name
			if err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name }); err != nil {
				m.log.Warn().Err(err).Msg("save prefs")
			}
		}

	case key.Matches(msg, k.Up):
		m.cursor().Up()
	case key.Matches(msg, k.Down):
		m.cursor().Down()
	case key.Matches(msg, k.PageUp):
		m.cursor().PageUp(PageJump)
	case key.Matches(msg, k.PageDown):
		m.cursor().PageDown(PageJump)

	case key.Matches(msg, k.VolumeUp):
		return m, m.volumeCmd(true), false
	case key.Matches(msg, k.VolumeDown):
		return m, m.volumeCmd(false), false
	case key.Matches(msg, k.PlayPause):
		return m, m.playPauseCmd(), false
	case key.Matches(msg, k.Skip):
		return m, m.controlCmd("skipped", m.client.Skip), false
	case key.Matches(msg, k.Stop):
		return m, m.controlCmd("stopped", m.client.Stop), false
	case key.Matches(msg, k.Clear):
		if m.tab == TabQueue {
			return m, m.controlCmd("queue cleared", m.client.Clear), false
		}
	case key.Matches(msg, k.Remove):
		if m.tab == TabQueue {
			if i, ok := m.queueCursor.Selected(); ok {
				return m, m.removeCmd(i), false
			}
		}
	case key.Matches(msg, k.Select):
		switch m.tab {
		case TabQueue:
			if i, ok := m.queueCursor.Selected(); ok {
				return m, m.promoteCmd(i), false
			}
		case TabHistory:
			if i, ok := m.historyCursor.Selected(); ok {
				return m, m.requeueCmd(i), false
			}
		}
	case key.Matches(msg, k.Add), key.Matches(msg, k.AddRaw):
		m.promptRaw = key.Matches(msg, k.AddRaw)
		m.prompting = true
		m.prompt.SetValue("")
		if m.promptRaw {
			m.prompt.Placeholder = "stream URL"
		} else {
			m.prompt.Placeholder = "file, directory, URL or search"
		}
		return m, m.prompt.Focus(), false
	case key.Matches(msg, k.OlderPg):
		return m, m.pageCmd(true), false
	case key.Matches(msg, k.NewerPg):
		return m, m.pageCmd(false), false
	}
	return m, nil, false
}

func (m *Model) cursor() *TabsElement {
	if m.tab == TabHistory {
		return &m.historyCursor
	}
	return &m.queueCursor
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.prompting = false
		m.prompt.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		input := strings.TrimSpace(m.prompt.Value())
		m.prompting = false
		m.prompt.Blur()
		if input == "" {
			return m, nil
		}
		m.setStatus("adding " + truncate(input, 60) + "...")
		return m, m.addCmd(input, m.promptRaw)
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	m := New(opts)
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
