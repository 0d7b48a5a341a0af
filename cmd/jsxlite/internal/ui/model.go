package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/recera/jsxlite/pkg/compiler"
)

// CompileFunc compiles one version of the previewed source.
type CompileFunc func(ctx context.Context, src []byte) (*compiler.Result, error)

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Up     key.Binding
	Down   key.Binding
	Reload key.Binding
	Quit   key.Binding
}

var DefaultKeyMap = KeyMap{
	Next: key.NewBinding(
		key.WithKeys("right", "l", "tab"),
		key.WithHelp("→/tab", "next target"),
	),
	Prev: key.NewBinding(
		key.WithKeys("left", "h", "shift+tab"),
		key.WithHelp("←", "previous target"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "scroll down"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "recompile"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
}

// Messages

// SourceMsg carries a new version of the previewed file. A non-nil Err
// means the file could not be read.
type SourceMsg struct {
	Src []byte
	Err error
}

type compiledMsg struct {
	res *compiler.Result
	err error
	at  time.Time
}

// Model is the preview TUI state
type Model struct {
	// Window dimensions
	width  int
	height int

	file    string
	targets []string
	active  int

	compile CompileFunc
	src     []byte

	// Result of the last compile
	result     *compiler.Result
	err        error
	compiledAt time.Time
	compiling  bool

	viewport viewport.Model
	ready    bool
}

// NewModel creates a preview of file for the given targets.
func NewModel(file string, targets []string, compile CompileFunc) Model {
	return Model{
		file:    file,
		targets: targets,
		compile: compile,
	}
}

// Active returns the target shown in the current tab.
func (m Model) Active() string {
	if len(m.targets) == 0 {
		return ""
	}
	return m.targets[m.active]
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := max(msg.Height-chromeHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.viewport.Width, m.viewport.Height = msg.Width, h
		}
		m.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Quit):
			return m, tea.Quit
		case key.Matches(msg, DefaultKeyMap.Next):
			m.switchTab(1)
			return m, nil
		case key.Matches(msg, DefaultKeyMap.Prev):
			m.switchTab(-1)
			return m, nil
		case key.Matches(msg, DefaultKeyMap.Reload):
			if m.src != nil {
				m.compiling = true
				return m, m.run(m.src)
			}
			return m, nil
		}

	case SourceMsg:
		if msg.Err != nil {
			m.result, m.err = nil, msg.Err
			m.refresh()
			return m, nil
		}
		m.src = msg.Src
		m.compiling = true
		return m, m.run(msg.Src)

	case compiledMsg:
		m.compiling = false
		m.result, m.err, m.compiledAt = msg.res, msg.err, msg.at
		m.refresh()
		return m, nil
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) run(src []byte) tea.Cmd {
	compile := m.compile
	return func() tea.Msg {
		res, err := compile(context.Background(), src)
		return compiledMsg{res: res, err: err, at: time.Now()}
	}
}

func (m *Model) switchTab(delta int) {
	if len(m.targets) == 0 {
		return
	}
	m.active = (m.active + delta + len(m.targets)) % len(m.targets)
	m.refresh()
	m.viewport.GotoTop()
}

// refresh puts the active output into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.body())
}
