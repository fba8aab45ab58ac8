package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/scholarfeed/internal/store"
	"github.com/scholarfeed/pkg/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 90 * time.Second
	maxMessageSize = 4096
)

// TokenValidator authenticates the token passed on the websocket handshake.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (userID string, err error)
}

// UserFetcher loads the connecting user's identity.
type UserFetcher interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// HandlerOptions tune the websocket handler.
type HandlerOptions struct {
	// HeartbeatInterval is how often a protocol ping is written regardless
	// of traffic.
	HeartbeatInterval time.Duration
	// MessageRate and MessageBurst bound inbound client messages per
	// connection.
	MessageRate  float64
	MessageBurst int
}

// Handler upgrades authenticated websocket connections and runs their read
// and write pumps.
type Handler struct {
	validator TokenValidator
	users     UserFetcher
	registry  *Registry
	disp      *Dispatcher
	opts      HandlerOptions

	upgrader websocket.Upgrader
}

// NewHandler creates a websocket handler.
func NewHandler(validator TokenValidator, users UserFetcher, reg *Registry, disp *Dispatcher, opts HandlerOptions) *Handler {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 30 * time.Second
	}
	if opts.MessageRate <= 0 {
		opts.MessageRate = 10
	}
	if opts.MessageBurst <= 0 {
		opts.MessageBurst = 20
	}
	return &Handler{
		validator: validator,
		users:     users,
		registry:  reg,
		disp:      disp,
		opts:      opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// inboundMessage is anything a client may send after the handshake.
type inboundMessage struct {
	Type    string `json:"type"`
	PostID  string `json:"postId"`
	Channel string `json:"channel"`
}

// Serve handles GET /ws. Authentication happens after the upgrade so the
// client receives a proper close frame instead of a failed handshake.
func (h *Handler) Serve(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	token := c.QueryParam("token")
	if token == "" {
		closePolicy(ws, "Authentication required")
		return nil
	}

	ctx := c.Request().Context()
	userID, err := h.validator.ValidateToken(ctx, token)
	if err != nil {
		closePolicy(ws, "Authentication failed")
		return nil
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			closePolicy(ws, "User not found")
		} else {
			log.Error().Err(err).Str("user_id", userID).Msg("failed to load websocket user")
			closePolicy(ws, "Authentication failed")
		}
		return nil
	}

	conn, wasOffline := h.registry.Register(user.ID)
	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("websocket connected")

	h.disp.SendToUser(user.ID, ConnectionEstablished(user.ID))
	if wasOffline {
		h.disp.BroadcastExcept(user.ID, UserOnlineStatus(user.ID, true))
	}

	go h.writePump(ws, conn)
	h.readPump(ws, conn, user)
	return nil
}

func closePolicy(ws *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = ws.Close()
}

// writePump drains the connection's send queue and emits protocol pings on
// the heartbeat interval. It owns all writes to the socket.
func (h *Handler) writePump(ws *websocket.Conn, conn *Conn) {
	ticker := time.NewTicker(h.opts.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	for {
		select {
		case msg, ok := <-conn.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Superseded by a newer connection for the same user.
				_ = ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session replaced"))
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes client messages until the socket dies, then unwinds the
// registration.
func (h *Handler) readPump(ws *websocket.Conn, conn *Conn, user *models.User) {
	defer func() {
		if h.registry.Unregister(conn) {
			h.disp.Broadcast(UserOnlineStatus(user.ID, false))
			log.Info().Str("user_id", user.ID).Msg("websocket disconnected")
		}
		_ = ws.Close()
	}()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := rate.NewLimiter(rate.Limit(h.opts.MessageRate), h.opts.MessageBurst)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("user_id", user.ID).Msg("websocket read error")
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		if !limiter.Allow() {
			h.disp.SendToUser(user.ID, Error("rate limit exceeded"))
			continue
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.disp.SendToUser(user.ID, Error("invalid message"))
			continue
		}
		h.handleMessage(user, msg)
	}
}

func (h *Handler) handleMessage(user *models.User, msg inboundMessage) {
	switch {
	case msg.Type == "ping":
		h.disp.SendToUser(user.ID, Pong())
	case msg.Type == "pong":
		// Application-level heartbeat reply; protocol pongs are handled by
		// the pong handler in readPump.
	case msg.Type == "typing_start":
		if msg.PostID != "" {
			h.disp.BroadcastExcept(user.ID, UserTyping(msg.PostID, user.ID, user.Username, true))
		}
	case msg.Type == "typing_stop":
		if msg.PostID != "" {
			h.disp.BroadcastExcept(user.ID, UserTyping(msg.PostID, user.ID, user.Username, false))
		}
	case strings.HasPrefix(msg.Type, "subscribe_"):
		channel := msg.Channel
		if channel == "" {
			channel = strings.TrimPrefix(msg.Type, "subscribe_")
		}
		h.disp.SendToUser(user.ID, SubscriptionConfirmed(channel))
	default:
		h.disp.SendToUser(user.ID, Error("unknown message type: "+msg.Type))
	}
}
