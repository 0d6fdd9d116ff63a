// Package conversation owns the conversation log of one chat session and
// drives the request/response cycle for each user turn.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/persona-chat/internal/model/chat"
	"github.com/zhouzirui/persona-chat/internal/model/persona"
	speechmodel "github.com/zhouzirui/persona-chat/internal/model/speech"
)

var (
	// ErrEmptyInput is returned for blank or whitespace-only messages.
	ErrEmptyInput = errors.New("message is empty")
	// ErrAwaitingResponse is returned while an earlier reply is outstanding.
	ErrAwaitingResponse = errors.New("a response is still pending")
	// ErrNoActiveCharacter is returned when no chat has been started.
	ErrNoActiveCharacter = errors.New("no character selected")
	// ErrSessionChanged is returned by a turn whose result was discarded
	// because the active character changed or the chat was left.
	ErrSessionChanged = errors.New("session changed before the response arrived")
)

// ChatClient sends one user message to the remote chat service.
type ChatClient interface {
	Send(ctx context.Context, text, characterID string) (string, error)
}

// SpeechClient turns text into a playable audio reference.
type SpeechClient interface {
	Synthesize(ctx context.Context, text string) (speechmodel.AudioRef, error)
}

// Controller holds the conversation log and the awaiting-response flag.
// All methods are safe for concurrent use; the lock is never held across a
// network call.
type Controller struct {
	chat     ChatClient
	speech   SpeechClient
	notifier Notifier
	player   Player
	onChange func()
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string

	mu         sync.Mutex
	active     string
	hasActive  bool
	log        []chat.Message
	awaiting   bool
	generation uint64
}

// Option customises a Controller.
type Option func(*Controller)

// WithNotifier routes failure notifications to n.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithPlayer routes synthesized audio to p.
func WithPlayer(p Player) Option {
	return func(c *Controller) {
		if p != nil {
			c.player = p
		}
	}
}

// WithChangeHook registers fn to run after every log or flag mutation.
// fn is called without the controller lock held.
func WithChangeHook(fn func()) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Controller with no active character.
func New(chatClient ChatClient, speechClient SpeechClient, opts ...Option) *Controller {
	c := &Controller{
		chat:     chatClient,
		speech:   speechClient,
		notifier: nopNotifier{},
		player:   nopPlayer{},
		logger:   zap.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("conversation")
	return c
}

// Start resets the log to the greeting of characterID and makes it active.
// Unknown ids get the generic greeting instead of failing.
func (c *Controller) Start(characterID string) {
	c.mu.Lock()
	c.generation++
	c.active = characterID
	c.hasActive = true
	c.awaiting = false
	c.log = []chat.Message{c.newMessage(persona.GreetingFor(characterID), chat.SenderCharacter)}
	c.mu.Unlock()

	if !persona.HasGreeting(characterID) {
		c.logger.Debug("no dedicated greeting, using generic", zap.String("character", characterID))
	}
	c.changed()
}

// Stop leaves the current session. Pending turns complete but are discarded.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.generation++
	c.active = ""
	c.hasActive = false
	c.awaiting = false
	c.log = nil
	c.mu.Unlock()
	c.changed()
}

// Turn is a submitted user message whose reply has not been fetched yet.
type Turn struct {
	c           *Controller
	text        string
	characterID string
	generation  uint64
	done        bool
}

// Text returns the submitted message.
func (t *Turn) Text() string { return t.text }

// Begin validates text, appends it as a user message and raises the
// awaiting flag. The caller must call Complete on the returned Turn.
func (c *Controller) Begin(text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	c.mu.Lock()
	if !c.hasActive {
		c.mu.Unlock()
		return nil, ErrNoActiveCharacter
	}
	if c.awaiting {
		c.mu.Unlock()
		return nil, ErrAwaitingResponse
	}
	c.log = append(c.log, c.newMessage(text, chat.SenderUser))
	c.awaiting = true
	turn := &Turn{c: c, text: text, characterID: c.active, generation: c.generation}
	c.mu.Unlock()

	c.changed()
	return turn, nil
}

// Complete fetches the reply for the turn. On success the reply is appended;
// on failure a notification is emitted and the log keeps only the user's
// message. The awaiting flag is cleared either way, unless the session was
// restarted or left meanwhile, in which case the result is dropped and
// ErrSessionChanged is returned.
func (t *Turn) Complete(ctx context.Context) error {
	if t.done {
		return errors.New("turn already completed")
	}
	t.done = true
	c := t.c

	reply, sendErr := c.chat.Send(ctx, t.text, t.characterID)

	c.mu.Lock()
	if c.generation != t.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding stale chat result",
			zap.String("character", t.characterID),
			zap.Bool("failed", sendErr != nil))
		return ErrSessionChanged
	}
	c.awaiting = false
	if sendErr == nil {
		c.log = append(c.log, c.newMessage(reply, chat.SenderCharacter))
	}
	c.mu.Unlock()

	if sendErr != nil {
		c.logger.Warn("chat turn failed", zap.String("character", t.characterID), zap.Error(sendErr))
		c.notifier.Notify(chatFailureNotice)
		c.changed()
		return fmt.Errorf("send message: %w", sendErr)
	}

	c.changed()
	return nil
}

// Submit runs Begin and Complete in one call.
func (c *Controller) Submit(ctx context.Context, text string) error {
	turn, err := c.Begin(text)
	if err != nil {
		return err
	}
	return turn.Complete(ctx)
}

// RequestSpeech voices content and hands the result to the player. It is not
// gated by the awaiting flag and never touches the log.
func (c *Controller) RequestSpeech(ctx context.Context, content string) (speechmodel.AudioRef, error) {
	ref, err := c.speech.Synthesize(ctx, content)
	if err != nil {
		c.logger.Warn("speech request failed", zap.Error(err))
		c.notifier.Notify(speechFailureNotice)
		return speechmodel.AudioRef{}, fmt.Errorf("synthesize speech: %w", err)
	}

	if playErr := c.player.Play(ctx, ref); playErr != nil {
		c.logger.Warn("audio playback failed", zap.String("url", ref.URL), zap.Error(playErr))
	}
	return ref, nil
}

// Messages returns a copy of the conversation log.
func (c *Controller) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chat.Message(nil), c.log...)
}

// AwaitingResponse reports whether a chat request is outstanding.
func (c *Controller) AwaitingResponse() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaiting
}

// ActiveCharacter returns the id of the active character, if any.
func (c *Controller) ActiveCharacter() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.hasActive
}

// newMessage must be called with c.mu held.
func (c *Controller) newMessage(content string, sender chat.Sender) chat.Message {
	return chat.Message{
		ID:        c.newID(),
		Content:   content,
		Sender:    sender,
		Timestamp: c.now(),
	}
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
