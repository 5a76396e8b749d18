package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bouyomi/bouyomi"
	"github.com/five82/bouyomi/internal/logtail"
	"github.com/five82/bouyomi/internal/prefs"
	"github.com/five82/bouyomi/internal/state"
)

const (
	logPanelLines  = 5
	volumeStep     = 10
	baselineVolume = 50 // assumed when the volume is left to the application
)

// Controller issues control commands to the speech application.
type Controller interface {
	Pause(ctx context.Context, opts ...bouyomi.CallOption) error
	Resume(ctx context.Context, opts ...bouyomi.CallOption) error
	Skip(ctx context.Context, opts ...bouyomi.CallOption) error
	Clear(ctx context.Context, opts ...bouyomi.CallOption) error
	Addr() string
}

// Queue accepts lines for asynchronous delivery. *bouyomi.Talker implements it.
type Queue interface {
	Talk(req bouyomi.TalkRequest)
	Pending() int
	Stats() bouyomi.TalkerStats
}

// Options configures the UI.
type Options struct {
	Context      context.Context
	Remote       Controller
	Talker       Queue
	Store        *state.Store
	Prefs        prefs.Prefs
	PrefsPath    string
	PrefsUpdates <-chan prefs.Prefs // reloaded preferences, e.g. from prefs.Watch
	Transport    string
	LogPath      string // shown in the log panel when set
	PollTick     time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx          context.Context
	remote       Controller
	talker       Queue
	store        *state.Store
	prefsPath    string
	prefsUpdates <-chan prefs.Prefs
	transport    string
	logPath      string
	pollTick     time.Duration

	keys  keyMap
	help  help.Model
	input textinput.Model

	theme    Theme
	prefs    prefs.Prefs
	snapshot state.Snapshot
	logLines []string
	notice   string
	noticeOK bool
	width    int
	height   int
	ready    bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = time.Second
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	input := textinput.New()
	input.Placeholder = "press i and type a line to speak"
	input.Prompt = "> "

	return Model{
		ctx:          ctx,
		remote:       opts.Remote,
		talker:       opts.Talker,
		store:        opts.Store,
		prefsPath:    prefsPath,
		prefsUpdates: opts.PrefsUpdates,
		transport:    opts.Transport,
		logPath:      opts.LogPath,
		pollTick:     pollTick,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		input:        input,
		theme:        GetTheme(opts.Prefs.Theme),
		prefs:        opts.Prefs,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.prefsUpdates != nil {
		cmds = append(cmds, waitForPrefs(m.prefsUpdates))
	}
	if m.logPath != "" {
		cmds = append(cmds, readLogCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-8, 10)
		m.ready = true
		return m, nil

	case tickMsg:
		var cmds []tea.Cmd
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		if m.logPath != "" {
			cmds = append(cmds, readLogCmd(m.logPath))
		}
		cmds = append(cmds, tickCmd(m.pollTick))
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		return m, nil

	case logLinesMsg:
		m.logLines = msg
		return m, nil

	case prefsMsg:
		m.prefs = prefs.Prefs(msg)
		m.theme = GetTheme(m.prefs.Theme)
		return m, waitForPrefs(m.prefsUpdates)

	case controlResultMsg:
		if msg.err != nil {
			m.setNotice(false, "%s failed: %v", msg.name, msg.err)
		} else {
			m.setNotice(true, "%s sent", msg.name)
		}
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input. While the text input is focused every key except
// enter, esc and ctrl+c goes to the input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.input.Focused() {
		switch {
		case key.Matches(msg, m.keys.Submit):
			m.submit()
			return m, nil
		case key.Matches(msg, m.keys.Blur):
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Pause):
		return m, m.control("pause", Controller.Pause)
	case key.Matches(msg, m.keys.Resume):
		return m, m.control("resume", Controller.Resume)
	case key.Matches(msg, m.keys.Skip):
		return m, m.control("skip", Controller.Skip)
	case key.Matches(msg, m.keys.Clear):
		return m, m.control("clear", Controller.Clear)

	case key.Matches(msg, m.keys.NextVoice):
		m.prefs.Voice = int(cycleVoice(bouyomi.Voice(m.prefs.Voice), 1))
		m.savePrefs()
	case key.Matches(msg, m.keys.PrevVoice):
		m.prefs.Voice = int(cycleVoice(bouyomi.Voice(m.prefs.Voice), -1))
		m.savePrefs()
	case key.Matches(msg, m.keys.VolumeUp):
		m.prefs.Volume = stepVolume(m.prefs.Volume, volumeStep)
		m.savePrefs()
	case key.Matches(msg, m.keys.VolumeDown):
		m.prefs.Volume = stepVolume(m.prefs.Volume, -volumeStep)
		m.savePrefs()

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
	}

	return m, nil
}

// submit queues the typed line with the current settings and clears the input.
func (m *Model) submit() {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return
	}
	m.input.Reset()
	if m.talker == nil {
		m.setNotice(false, "no talker configured")
		return
	}
	m.talker.Talk(m.prefs.Request(text))
	if m.store != nil {
		m.store.RecordTalk(text)
	}
	m.setNotice(true, "queued %q", truncate(text, 40))
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.setNotice(false, "save prefs: %v", err)
	}
}

func (m *Model) setNotice(ok bool, format string, args ...any) {
	m.notice = fmt.Sprintf(format, args...)
	m.noticeOK = ok
}

func (m Model) control(name string, fn func(Controller, context.Context, ...bouyomi.CallOption) error) tea.Cmd {
	if m.remote == nil {
		return nil
	}
	ctx, remote := m.ctx, m.remote
	return func() tea.Msg {
		return controlResultMsg{name: name, err: fn(remote, ctx)}
	}
}

// cycleVoice steps through the built-in voices. External voices restart at the default.
func cycleVoice(v bouyomi.Voice, step int) bouyomi.Voice {
	n := int(bouyomi.VoiceMachine2) + 1
	if v < 0 || int(v) >= n {
		return bouyomi.VoiceDefault
	}
	return bouyomi.Voice(((int(v)+step)%n + n) % n)
}

func stepVolume(v, delta int) int {
	if v == bouyomi.Unset {
		v = baselineVolume
	}
	return min(max(v+delta, 0), 100)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type prefsMsg prefs.Prefs

type logLinesMsg []string

type controlResultMsg struct {
	name string
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// readLogCmd reads the log tail off the update loop. Read errors leave the panel as it was.
func readLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logPanelLines)
		if err != nil {
			return nil
		}
		return logLinesMsg(lines)
	}
}

func waitForPrefs(ch <-chan prefs.Prefs) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return prefsMsg(p)
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the context ends.
func Run(opts Options) error {
	m := New(opts)
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	_, err := tea.NewProgram(m, programOpts...).Run()
	if opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
