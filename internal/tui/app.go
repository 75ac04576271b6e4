// Package tui is the terminal player. It follows the bubbletea loop:
// key and timer messages go through Update into the session, and View
// renders the session snapshot.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pbaille/wanderword/internal/domain"
	"github.com/pbaille/wanderword/internal/playback"
	"github.com/pbaille/wanderword/internal/session"
)

// loadingInterval is how often the loading banner switches language
const loadingInterval = 1200 * time.Millisecond

var loadingMessages = []string{
	"RESEARCHING_LINGUISTIC_ROOTS...",
	"言葉のルートを辿っています...",
	"正在研究语言根源...",
	"RECHERCHE DES RACINES LINGUISTIQUES...",
	"INVESTIGANDO RAÍCES LINGÜÍSTICAS...",
	"ИССЛЕДОВАНИЕ КОРНЕЙ...",
	"शब्द की जड़ें खोज रहे हैं...",
}

// Favorites persists starred words
type Favorites interface {
	ToggleFavorite(ctx context.Context, word string) (bool, error)
	IsFavorite(ctx context.Context, word string) (bool, error)
}

type mode int

const (
	modeSearch mode = iota
	modePlayer
)

type searchDoneMsg struct {
	word    string
	journey domain.Journey
	err     error
}

type stateMsg playback.State

type loadingTickMsg struct{}

// StateChannel returns a buffered channel and a notify callback for
// playback.WithNotify. Updates are dropped when the UI falls behind; the
// view always re-reads the latest snapshot.
func StateChannel() (<-chan playback.State, func(playback.State)) {
	ch := make(chan playback.State, 16)
	return ch, func(st playback.State) {
		select {
		case ch <- st:
		default:
		}
	}
}

// Option customizes the Model
type Option func(*Model)

// WithFavorites enables the f key
func WithFavorites(f Favorites) Option {
	return func(m *Model) { m.favs = f }
}

// WithInitialWord searches for word as soon as the program starts
func WithInitialWord(word string) Option {
	return func(m *Model) { m.initial = strings.TrimSpace(word) }
}

// Model is the bubbletea model for the player
type Model struct {
	ctx     context.Context
	sess    *session.Session
	updates <-chan playback.State
	favs    Favorites
	initial string

	mode       mode
	input      textinput.Model
	spinner    spinner.Model
	loading    bool
	loadingIdx int
	favorite   bool
	status     string

	width  int
	height int
}

// New creates the player model. updates may be nil.
func New(ctx context.Context, sess *session.Session, updates <-chan playback.State, opts ...Option) *Model {
	in := textinput.New()
	in.Placeholder = "enter a word..."
	in.Prompt = "› "
	in.CharLimit = 64
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	m := &Model{
		ctx:     ctx,
		sess:    sess,
		updates: updates,
		input:   in,
		spinner: sp,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Init is called once when the program starts
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.waitForState()}
	if m.initial != "" {
		m.input.SetValue(m.initial)
		cmds = append(cmds, m.startSearch(m.initial))
	}
	return tea.Batch(cmds...)
}

// Update is called when a message is received
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case searchDoneMsg:
		return m, m.finishSearch(msg)

	case stateMsg:
		return m, m.waitForState()

	case loadingTickMsg:
		if !m.loading {
			return m, nil
		}
		m.loadingIdx = (m.loadingIdx + 1) % len(loadingMessages)
		return m, loadingTick()

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.mode == modeSearch {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.mode == modeSearch {
		return m.handleSearchKey(msg)
	}
	return m.handlePlayerKey(msg)
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if m.loading {
			return m, nil
		}
		word := strings.TrimSpace(m.input.Value())
		if word == "" {
			m.status = session.FailureMessage(session.ErrEmptyInput)
			return m, nil
		}
		return m, m.startSearch(word)

	case tea.KeyEsc:
		if m.sess.Snapshot().Journey != nil {
			m.mode = modePlayer
			m.input.Blur()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handlePlayerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.sess.Key(session.KeyLeft)
	case "right", "l":
		m.sess.Key(session.KeyRight)
	case " ":
		m.sess.Toggle()
	case "r":
		m.sess.Reset()
	case "1":
		m.setSpeed(playback.SpeedHalf)
	case "2":
		m.setSpeed(playback.SpeedNormal)
	case "3":
		m.setSpeed(playback.SpeedDouble)
	case "f":
		m.toggleFavorite()
	case "n", "/":
		m.mode = modeSearch
		m.input.SetValue("")
		return m, m.input.Focus()
	case "esc":
		m.sess.Dismiss()
		m.favorite = false
		m.status = ""
		m.mode = modeSearch
		m.input.SetValue("")
		return m, m.input.Focus()
	}
	return m, nil
}

func (m *Model) setSpeed(s playback.Speed) {
	if err := m.sess.SetSpeed(s); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) toggleFavorite() {
	snap := m.sess.Snapshot()
	if m.favs == nil || snap.Journey == nil {
		return
	}
	fav, err := m.favs.ToggleFavorite(m.ctx, domain.NormalizeWord(snap.Journey.Word))
	if err != nil {
		m.status = "Could not save favourite."
		return
	}
	m.favorite = fav
}

func (m *Model) startSearch(word string) tea.Cmd {
	m.loading = true
	m.loadingIdx = 0
	m.status = ""
	return tea.Batch(m.searchCmd(word), m.spinner.Tick, loadingTick())
}

func (m *Model) searchCmd(word string) tea.Cmd {
	return func() tea.Msg {
		j, err := m.sess.Search(m.ctx, word)
		return searchDoneMsg{word: word, journey: j, err: err}
	}
}

func (m *Model) finishSearch(msg searchDoneMsg) tea.Cmd {
	m.loading = m.sess.Snapshot().Loading
	if msg.err != nil {
		m.status = session.FailureMessage(msg.err)
		return nil
	}
	m.status = ""
	m.mode = modePlayer
	m.input.Blur()
	m.favorite = false
	if m.favs != nil {
		fav, err := m.favs.IsFavorite(m.ctx, domain.NormalizeWord(msg.journey.Word))
		if err == nil {
			m.favorite = fav
		}
	}
	return nil
}

func (m *Model) waitForState() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	ch := m.updates
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(st)
	}
}

func loadingTick() tea.Cmd {
	return tea.Tick(loadingInterval, func(time.Time) tea.Msg {
		return loadingTickMsg{}
	})
}
