// Package ws is the transport-integration layer: it accepts websocket
// connections, binds each to its claimed identity, and owns the
// register → serve → release lifecycle. The subscription to a connection is
// established once here, decoupled from the authentication workflow.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"onyx/internal/platform/middleware"
	"onyx/internal/realtime/dispatch"
	"onyx/internal/realtime/presence"
	"onyx/internal/realtime/registry"
	"onyx/pkg/domain"
)

// Inbound frame types a client may send.
const frameTypePresenceGet = "presence.get"

type inboundFrame struct {
	Type string `json:"type"`
}

type Handler struct {
	registry     *registry.Registry
	presence     *presence.Broadcaster
	dispatcher   *dispatch.Dispatcher
	jwtValidator middleware.JWTValidator
	logger       *slog.Logger
	sendBuffer   int
	upgrader     websocket.Upgrader
}

func New(
	reg *registry.Registry,
	pres *presence.Broadcaster,
	disp *dispatch.Dispatcher,
	jwtValidator middleware.JWTValidator,
	logger *slog.Logger,
	sendBuffer int) *Handler {
	return &Handler{
		registry:     reg,
		presence:     pres,
		dispatcher:   disp,
		jwtValidator: jwtValidator,
		logger:       logger,
		sendBuffer:   sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser origin policy is enforced at the edge proxy; the
			// core accepts any origin the proxy lets through.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Register registers the websocket route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/ws", h.handleConnect)
}

// handleConnect upgrades the request and serves the connection until the
// client goes away. One connection per session; a second connect for the
// same identity displaces this one in the registry, its socket is closed
// here, and the teardown path does not evict the replacement.
func (h *Handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			"user_id", userID.String(),
			"error", err,
		)
		return
	}

	conn := newWSConn(socket, h.sendBuffer, h.logger)
	go conn.writePump()

	entry, displaced := h.registry.Register(userID, conn)
	if old, ok := displaced.(*wsConn); ok {
		// The stale session's pumps stop and its client sees a close frame.
		old.close()
		h.logger.InfoContext(r.Context(), "displaced prior connection",
			"user_id", userID.String(),
		)
	}
	h.logger.InfoContext(r.Context(), "client connected",
		"user_id", userID.String(),
		"connection_id", entry.ID.String(),
	)

	// Offline backlog, when the outbox extension is on.
	h.dispatcher.Replay(r.Context(), entry)

	h.readLoop(entry, socket)

	h.registry.Release(entry)
	conn.close()
	h.logger.InfoContext(r.Context(), "client disconnected",
		"user_id", userID.String(),
		"connection_id", entry.ID.String(),
	)
}

// authenticate resolves the claimed identity from the bearer token (header
// or, for browser websocket clients that cannot set headers, the token query
// parameter). Token issuance and verification policy belong to the auth
// collaborator; this layer only checks the signature it was configured with.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		const bearerPrefix = "Bearer "
		auth := r.Header.Get("Authorization")
		if len(auth) > len(bearerPrefix) && auth[:len(bearerPrefix)] == bearerPrefix {
			token = auth[len(bearerPrefix):]
		}
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return "", false
	}

	claims, err := h.jwtValidator.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return "", false
	}
	userID, err := domain.ParseUserID(claims.UserID)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

// readLoop consumes client frames until the connection drops. The only
// inbound request is the idempotent presence snapshot fetch; anything else
// is ignored.
func (h *Handler) readLoop(entry *registry.Connection, socket *websocket.Conn) {
	socket.SetReadLimit(maxInboundFrameBytes)
	_ = socket.SetReadDeadline(time.Now().Add(pongWait))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error",
					"user_id", entry.UserID.String(),
					"error", err,
				)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.Type == frameTypePresenceGet {
			h.presence.SendSnapshot(entry)
		}
	}
}
