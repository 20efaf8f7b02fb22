// Package handler exposes the dispatch contract over HTTP. Collaborating
// workflows (posts, comments, messaging) that do not share this process call
// POST /notifications to fan an event out; presence reads live here too.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"onyx/internal/platform/middleware"
	"onyx/internal/realtime/models"
	"onyx/internal/transport/http/shared"
	"onyx/pkg/domain"
	dErrors "onyx/pkg/domainerrors"
)

// Dispatcher is the fan-out contract this handler fronts.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev models.NotificationEvent)
}

// Presence is the read side of the online set.
type Presence interface {
	SnapshotOnlineIDs() []domain.UserID
}

type Handler struct {
	logger       *slog.Logger
	dispatcher   Dispatcher
	presence     Presence
	jwtValidator middleware.JWTValidator
}

func New(dispatcher Dispatcher, presence Presence, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		dispatcher:   dispatcher,
		presence:     presence,
		jwtValidator: jwtValidator,
	}
}

// Register registers the notification and presence routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/notifications", h.handleDispatch)
		r.Get("/presence", h.handlePresence)
	})
}

type dispatchRequest struct {
	Type       string `json:"type"`
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
	PostID     string `json:"postId"`
	CommentID  string `json:"commentId"`
}

// handleDispatch constructs an event on behalf of a domain workflow and
// hands it to the dispatcher. The response is 202 regardless of whether the
// receiver was reachable: delivery is best-effort and the caller's own
// operation already succeeded.
func (h *Handler) handleDispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sender, err := domain.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	kind, err := models.ParseEventKind(req.Type)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown notification type"))
		return
	}
	receiver, err := domain.ParseUserID(req.ReceiverID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "receiverId is required"))
		return
	}

	h.dispatcher.Dispatch(ctx, models.NotificationEvent{
		Kind:       kind,
		SenderID:   sender,
		ReceiverID: receiver,
		Message:    req.Message,
		PostID:     req.PostID,
		CommentID:  req.CommentID,
	})

	shared.WriteJSON(w, http.StatusAccepted, map[string]string{"message": "notification accepted"})
}

func (h *Handler) handlePresence(w http.ResponseWriter, r *http.Request) {
	ids := h.presence.SnapshotOnlineIDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	shared.WriteJSON(w, http.StatusOK, map[string][]string{"onlineUserIds": out})
}
