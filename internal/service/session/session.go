// Package session is the explicit context object a presentation layer talks
// to: one view router plus one conversation controller per user.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/persona-chat/internal/model/chat"
	"github.com/zhouzirui/persona-chat/internal/model/persona"
	speechmodel "github.com/zhouzirui/persona-chat/internal/model/speech"
	"github.com/zhouzirui/persona-chat/internal/service/conversation"
	"github.com/zhouzirui/persona-chat/internal/service/view"
)

var (
	// ErrUnknownCharacter is returned by OnSelect for ids outside the registry.
	ErrUnknownCharacter = persona.ErrUnknownCharacter
	// ErrAlreadyChatting is returned by OnSelect while a chat screen is open.
	ErrAlreadyChatting = errors.New("a chat is already open")
	// ErrSessionClosed is returned by Dispatch once the session is shutting down.
	ErrSessionClosed = errors.New("session is closed")
)

// Deps are the collaborators shared by every session.
type Deps struct {
	Registry persona.Store
	Chat     conversation.ChatClient
	Speech   conversation.SpeechClient
	// Player is optional; play events are published regardless.
	Player conversation.Player
	Logger *zap.Logger
}

// Snapshot is everything a presentation layer needs to render a session.
type Snapshot struct {
	ID               string             `json:"id"`
	Screen           view.Screen        `json:"screen"`
	Character        *persona.Character `json:"character,omitempty"`
	Messages         []chat.Message     `json:"messages"`
	AwaitingResponse bool               `json:"awaitingResponse"`
	CreatedAt        time.Time          `json:"createdAt"`
}

// Session composes a router and a controller.
type Session struct {
	ID        string
	CreatedAt time.Time

	registry   persona.Store
	router     *view.Router
	controller *conversation.Controller
	events     *Hub
	logger     *zap.Logger

	// nav serialises Select/Back so router and controller move together.
	nav sync.Mutex

	background context.Context

	// mu guards closed and every inflight.Add, so Add never races Wait.
	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// New creates a session on the selection screen.
func New(deps Deps) *Session {
	return newSession(context.Background(), deps)
}

func newSession(background context.Context, deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		registry:   deps.Registry,
		router:     view.NewRouter(deps.Registry),
		background: background,
	}
	s.logger = logger.Named("session").With(zap.String("session", s.ID))
	s.events = NewHub(s.logger)

	s.controller = conversation.New(deps.Chat, deps.Speech,
		conversation.WithLogger(logger),
		conversation.WithNotifier(conversation.NotifierFunc(func(n conversation.Notification) {
			s.events.Publish(Event{Type: EventNotification, Data: n})
		})),
		conversation.WithPlayer(&eventPlayer{hub: s.events, next: deps.Player}),
		conversation.WithChangeHook(func() {
			s.events.Publish(Event{Type: EventState, Data: s.Snapshot()})
		}),
	)
	return s
}

// ListCharacters returns the registry in display order.
func (s *Session) ListCharacters() []persona.Character {
	if s.registry == nil {
		return nil
	}
	return s.registry.List()
}

// OnSelect opens the chat screen for id and starts a fresh conversation.
func (s *Session) OnSelect(id string) error {
	s.nav.Lock()
	defer s.nav.Unlock()

	if _, err := persona.Lookup(s.registry, id); err != nil {
		return err
	}
	if !s.router.Select(id) {
		return ErrAlreadyChatting
	}
	s.controller.Start(id)
	s.logger.Info("character selected", zap.String("character", id))
	return nil
}

// OnBack returns to the selection screen. In-flight replies are discarded.
func (s *Session) OnBack() bool {
	s.nav.Lock()
	defer s.nav.Unlock()

	if !s.router.Back() {
		return false
	}
	s.controller.Stop()
	s.logger.Info("back to selection")
	return true
}

// OnSubmit sends text and waits for the reply.
func (s *Session) OnSubmit(ctx context.Context, text string) error {
	return s.controller.Submit(ctx, text)
}

// Dispatch records text immediately and fetches the reply in the background.
// The reply, or the failure notification, arrives as an event.
func (s *Session) Dispatch(text string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	turn, err := s.controller.Begin(text)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		if err := turn.Complete(s.background); err != nil {
			s.logger.Debug("background turn ended with error", zap.Error(err))
		}
	}()
	return nil
}

// Speak voices content. It does not interact with pending chat turns.
func (s *Session) Speak(ctx context.Context, content string) (speechmodel.AudioRef, error) {
	return s.controller.RequestSpeech(ctx, content)
}

// Messages returns the conversation log.
func (s *Session) Messages() []chat.Message {
	return s.controller.Messages()
}

// AwaitingResponse reports whether a reply is pending.
func (s *Session) AwaitingResponse() bool {
	return s.controller.AwaitingResponse()
}

// Screen returns the router state.
func (s *Session) Screen() view.State {
	return s.router.State()
}

// Events returns the hub carrying state, notification and play events.
func (s *Session) Events() *Hub {
	return s.events
}

// Snapshot captures the current screen, character and log.
func (s *Session) Snapshot() Snapshot {
	state := s.router.State()
	snap := Snapshot{
		ID:               s.ID,
		Screen:           state.Screen,
		Messages:         s.controller.Messages(),
		AwaitingResponse: s.controller.AwaitingResponse(),
		CreatedAt:        s.CreatedAt,
	}
	if snap.Messages == nil {
		snap.Messages = []chat.Message{}
	}
	if state.Screen == view.ScreenChat {
		if c, err := persona.Lookup(s.registry, state.CharacterID); err == nil {
			snap.Character = &c
		}
	}
	return snap
}

// Wait blocks until background turns started by Dispatch have finished.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// markClosed makes later Dispatch calls fail with ErrSessionClosed.
func (s *Session) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// close refuses new turns, then ends event subscriptions once background
// work has drained.
func (s *Session) close() {
	s.markClosed()
	s.Wait()
	s.events.Close()
}

// eventPlayer publishes a play event and forwards to an optional player.
type eventPlayer struct {
	hub  *Hub
	next conversation.Player
}

func (p *eventPlayer) Play(ctx context.Context, ref speechmodel.AudioRef) error {
	p.hub.Publish(Event{Type: EventPlay, Data: ref})
	if p.next == nil {
		return nil
	}
	return p.next.Play(ctx, ref)
}
