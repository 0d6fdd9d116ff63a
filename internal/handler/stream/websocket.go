package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	sessionhandler "github.com/zhouzirui/persona-chat/internal/handler/session"
	sessionsvc "github.com/zhouzirui/persona-chat/internal/service/session"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// WebSocketHandler drives a session over a websocket: inbound commands,
// outbound session events.
type WebSocketHandler struct {
	sessions *sessionsvc.Manager
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewWebSocket creates a websocket handler.
func NewWebSocket(sessions *sessionsvc.Manager, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		sessions: sessions,
		logger:   logger.Named("websocket"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts GET /sessions/{sessionID}/ws.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/ws", h.handleWebSocket)
}

// Inbound message types.
const (
	CommandSelect = "select"
	CommandBack   = "back"
	CommandSubmit = "submit"
	CommandSpeak  = "speak"
)

// InboundMessage is a command sent by the browser.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// OutboundMessage carries a session event, a command result or an error.
type OutboundMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type commandPayload struct {
	CharacterID string `json:"characterId"`
	Text        string `json:"text"`
}

// ErrorPayload is the data of an outbound "error" message.
type ErrorPayload struct {
	Command string `json:"command,omitempty"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// conn serialises writes; gorilla allows one concurrent writer.
type conn struct {
	ws        *websocket.Conn
	sessionID string
	logger    *zap.Logger

	mu sync.Mutex
}

func (c *conn) send(typ string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(OutboundMessage{
		Type:      typ,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *conn) sendError(command string, status int, message string) {
	if err := c.send("error", ErrorPayload{Command: command, Message: message, Status: status}); err != nil {
		c.logger.Debug("write error failed", zap.Error(err))
	}
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionhandler.Lookup(h.sessions, w, r)
	if !ok {
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	logger := h.logger.With(zap.String("session", s.ID))
	c := &conn{ws: ws, sessionID: s.ID, logger: logger}
	logger.Info("connection opened")
	defer logger.Info("connection closed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, unsubscribe := s.Events().Subscribe()
	defer unsubscribe()

	if err := c.send(string(sessionsvc.EventState), s.Snapshot()); err != nil {
		return
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.pump(ctx, c, events)
	}()

	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg InboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("read error", zap.Error(err))
			}
			cancel()
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		h.handleCommand(ctx, c, s, &wg, msg)
	}
}

// pump forwards session events and keeps the connection alive until ctx
// ends or the session goes away.
func (h *WebSocketHandler) pump(ctx context.Context, c *conn, events <-chan sessionsvc.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				c.mu.Lock()
				_ = c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(writeWait))
				c.mu.Unlock()
				return
			}
			if err := c.send(string(ev.Type), ev.Data); err != nil {
				c.logger.Debug("write event failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) handleCommand(ctx context.Context, c *conn, s *sessionsvc.Session, wg *sync.WaitGroup, msg InboundMessage) {
	var payload commandPayload
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			c.sendError(msg.Type, http.StatusBadRequest, "invalid payload")
			return
		}
	}

	switch msg.Type {
	case CommandSelect:
		if err := s.OnSelect(payload.CharacterID); err != nil {
			c.sendError(msg.Type, sessionhandler.StatusFor(err), err.Error())
		}
	case CommandBack:
		if !s.OnBack() {
			// Nothing changed, so no state event fires; echo the current state.
			_ = c.send(string(sessionsvc.EventState), s.Snapshot())
		}
	case CommandSubmit:
		if err := s.Dispatch(payload.Text); err != nil {
			c.sendError(msg.Type, sessionhandler.StatusFor(err), err.Error())
		}
	case CommandSpeak:
		// Speech requests are independent of each other and of chat turns.
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Speak(ctx, payload.Text); err != nil {
				c.logger.Debug("speak failed", zap.Error(err))
			}
		}()
	default:
		c.sendError(msg.Type, http.StatusBadRequest, "unsupported message type: "+msg.Type)
	}
}
