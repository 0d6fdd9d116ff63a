package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/zhouzirui/persona-chat/internal/model/chat"
	"github.com/zhouzirui/persona-chat/internal/model/persona"
	"github.com/zhouzirui/persona-chat/internal/service/conversation"
	"github.com/zhouzirui/persona-chat/internal/service/session"
	"github.com/zhouzirui/persona-chat/internal/service/view"
)

const toastDuration = 4 * time.Second

// eventMsg carries one session event into the update loop.
type eventMsg struct{ event session.Event }

// eventsClosedMsg reports that the session hub has shut down.
type eventsClosedMsg struct{}

// speakDoneMsg reports the end of a speech request; failures arrive
// separately as notification events.
type speakDoneMsg struct{ err error }

type toastExpiredMsg struct{ id int }

// characterItem adapts a persona to the bubbles list.
type characterItem struct{ c persona.Character }

func (i characterItem) Title() string       { return i.c.Name }
func (i characterItem) Description() string { return i.c.Subtitle + " · " + i.c.Description }
func (i characterItem) FilterValue() string { return i.c.Name }

// Model is the bubbletea model driving one session.
type Model struct {
	session *session.Session
	events  <-chan session.Event
	cancel  func()
	ctx     context.Context
	logger  *zap.Logger
	keys    KeyMap

	list     list.Model
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	snapshot session.Snapshot
	toast    *conversation.Notification
	toastID  int
	speaking int
	// picked indexes the character message ctrl+s voices; -1 means the latest.
	picked int

	width  int
	height int
}

// New builds a model on the selection screen of s. ctx bounds speech requests.
func New(ctx context.Context, s *session.Session, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	characters := s.ListCharacters()
	items := make([]list.Item, len(characters))
	for i, c := range characters {
		items[i] = characterItem{c: c}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Choose a character"
	l.SetShowStatusBar(false)
	l.DisableQuitKeybindings()

	input := textinput.New()
	input.Placeholder = "Type your message..."
	input.CharLimit = 2000

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	events, cancel := s.Events().Subscribe()

	return Model{
		session:  s,
		events:   events,
		cancel:   cancel,
		ctx:      ctx,
		logger:   logger.Named("tui"),
		keys:     DefaultKeyMap,
		list:     l,
		viewport: viewport.New(0, 0),
		input:    input,
		spinner:  sp,
		snapshot: s.Snapshot(),
		picked:   -1,
	}
}

// Close releases the event subscription.
func (m Model) Close() {
	m.cancel()
}

// Init starts listening for session events.
func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

// Update handles keys, resizes and session events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case eventMsg:
		cmd := m.handleEvent(msg.event)
		return m, tea.Batch(cmd, m.waitForEvent())

	case eventsClosedMsg:
		return m, tea.Quit

	case speakDoneMsg:
		m.speaking--
		if msg.err != nil {
			m.logger.Debug("speak failed", zap.Error(msg.err))
		}
		return m, nil

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = nil
		}
		return m, nil

	case spinner.TickMsg:
		if !m.snapshot.AwaitingResponse {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.CtrlC) {
			return m, tea.Quit
		}
		if m.snapshot.Screen == view.ScreenChat {
			return m.updateChat(msg)
		}
		return m.updateSelection(msg)
	}

	return m, nil
}

func (m Model) updateSelection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Select):
			item, ok := m.list.SelectedItem().(characterItem)
			if !ok {
				return m, nil
			}
			if err := m.session.OnSelect(item.c.ID); err != nil {
				m.logger.Warn("select failed", zap.String("character", item.c.ID), zap.Error(err))
				return m, nil
			}
			m.picked = -1
			m.refresh()
			m.input.Reset()
			return m, m.input.Focus()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.session.OnBack()
		m.input.Blur()
		m.picked = -1
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Speak):
		content, ok := m.speakTarget()
		if !ok {
			return m, nil
		}
		m.speaking++
		return m, m.speak(content)

	case key.Matches(msg, m.keys.Older):
		m.movePick(-1)
		return m, nil

	case key.Matches(msg, m.keys.Newer):
		m.movePick(1)
		return m, nil

	case key.Matches(msg, m.keys.Send):
		err := m.session.Dispatch(m.input.Value())
		switch {
		case err == nil:
			m.input.Reset()
			m.refresh()
			return m, m.spinner.Tick
		case errors.Is(err, conversation.ErrEmptyInput), errors.Is(err, conversation.ErrAwaitingResponse):
			return m, nil
		default:
			m.logger.Warn("submit failed", zap.Error(err))
			return m, nil
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleEvent(ev session.Event) tea.Cmd {
	switch ev.Type {
	case session.EventState:
		wasAwaiting := m.snapshot.AwaitingResponse
		m.refresh()
		if m.snapshot.AwaitingResponse && !wasAwaiting {
			return m.spinner.Tick
		}
	case session.EventNotification:
		n, ok := ev.Data.(conversation.Notification)
		if !ok {
			return nil
		}
		m.toastID++
		m.toast = &n
		id := m.toastID
		return tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
	}
	return nil
}

func (m Model) speak(content string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		_, err := s.Speak(ctx, content)
		return speakDoneMsg{err: err}
	}
}

// refresh pulls a fresh snapshot and re-renders the transcript.
func (m *Model) refresh() {
	m.snapshot = m.session.Snapshot()
	if m.picked >= len(m.snapshot.Messages) || (m.picked >= 0 && !m.snapshot.Messages[m.picked].FromCharacter()) {
		m.picked = -1
	}
	m.render()
}

// render redraws the transcript, keeping the picked message in view.
func (m *Model) render() {
	content, pickedLine := m.renderTranscript()
	m.viewport.SetContent(content)
	if pickedLine < 0 {
		m.viewport.GotoBottom()
		return
	}
	m.viewport.SetYOffset(pickedLine)
}

// movePick steps the picked character message. Stepping older from the
// latest default picks the latest; stepping newer past it clears the pick.
func (m *Model) movePick(delta int) {
	idx := characterIndexes(m.snapshot.Messages)
	if len(idx) == 0 {
		return
	}

	pos := len(idx)
	for i, v := range idx {
		if v == m.picked {
			pos = i
			break
		}
	}
	if m.picked < 0 && delta < 0 {
		pos = len(idx) - 1
	} else {
		pos += delta
	}

	switch {
	case pos < 0:
		pos = 0
	case pos >= len(idx):
		m.picked = -1
		m.render()
		return
	}
	m.picked = idx[pos]
	m.render()
}

// speakTarget returns the picked character message, or the latest one.
func (m Model) speakTarget() (string, bool) {
	if m.picked >= 0 && m.picked < len(m.snapshot.Messages) {
		return m.snapshot.Messages[m.picked].Content, true
	}
	return lastCharacterMessage(m.snapshot.Messages)
}

func (m *Model) layout() {
	m.list.SetSize(m.width, max(m.height-2, 1))
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-8, 1)
	m.input.Width = max(m.width-4, 10)
	m.render()
}

func characterIndexes(messages []chat.Message) []int {
	var idx []int
	for i, msg := range messages {
		if msg.FromCharacter() {
			idx = append(idx, i)
		}
	}
	return idx
}

func lastCharacterMessage(messages []chat.Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].FromCharacter() {
			return messages[i].Content, true
		}
	}
	return "", false
}
