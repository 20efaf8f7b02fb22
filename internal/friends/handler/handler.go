package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	friendsmodels "onyx/internal/friends/models"
	"onyx/internal/platform/middleware"
	"onyx/internal/transport/http/shared"
	"onyx/pkg/domain"
	dErrors "onyx/pkg/domainerrors"
)

// Service defines the interface for relationship operations.
type Service interface {
	SendRequest(ctx context.Context, from, to domain.UserID) error
	AcceptRequest(ctx context.Context, to, from domain.UserID) error
	RejectRequest(ctx context.Context, to, from domain.UserID) error
	RemoveFriend(ctx context.Context, a, b domain.UserID) error
	View(ctx context.Context, userID domain.UserID) (*friendsmodels.GraphView, error)
	Status(ctx context.Context, viewer, other domain.UserID) (string, error)
}

// Handler exposes the relationship state machine over HTTP for the
// collaborating workflows.
type Handler struct {
	logger       *slog.Logger
	friends      Service
	jwtValidator middleware.JWTValidator
}

// New creates a new friends Handler.
func New(friends Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		friends:      friends,
		jwtValidator: jwtValidator,
	}
}

// Register registers the friends routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/friends", h.handleView)
		r.Get("/friends/status/{userId}", h.handleStatus)
		r.Post("/friends/requests/{userId}", h.handleSendRequest)
		r.Post("/friends/requests/{userId}/accept", h.handleAcceptRequest)
		r.Post("/friends/requests/{userId}/reject", h.handleRejectRequest)
		r.Delete("/friends/{userId}", h.handleRemoveFriend)
	})
}

func (h *Handler) handleSendRequest(w http.ResponseWriter, r *http.Request) {
	viewer, target, ok := h.pair(w, r)
	if !ok {
		return
	}
	if err := h.friends.SendRequest(r.Context(), viewer, target); err != nil {
		h.logTransitionFailure(r, "send friend request", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"message": "friend request sent"})
}

func (h *Handler) handleAcceptRequest(w http.ResponseWriter, r *http.Request) {
	viewer, requester, ok := h.pair(w, r)
	if !ok {
		return
	}
	if err := h.friends.AcceptRequest(r.Context(), viewer, requester); err != nil {
		h.logTransitionFailure(r, "accept friend request", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"message": "friend request accepted"})
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	viewer, requester, ok := h.pair(w, r)
	if !ok {
		return
	}
	if err := h.friends.RejectRequest(r.Context(), viewer, requester); err != nil {
		h.logTransitionFailure(r, "reject friend request", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"message": "friend request rejected"})
}

func (h *Handler) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	viewer, target, ok := h.pair(w, r)
	if !ok {
		return
	}
	if err := h.friends.RemoveFriend(r.Context(), viewer, target); err != nil {
		h.logTransitionFailure(r, "remove friend", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"message": "friend removed"})
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	view, err := h.friends.View(r.Context(), viewer)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load friend graph",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	viewer, other, ok := h.pair(w, r)
	if !ok {
		return
	}
	status, err := h.friends.Status(r.Context(), viewer, other)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": status})
}

// viewer pulls the authenticated identity out of the request context.
func (h *Handler) viewer(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	viewer, err := domain.ParseUserID(middleware.GetUserID(r.Context()))
	if err != nil {
		// Should never happen behind RequireAuth.
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	return viewer, true
}

// pair resolves the authenticated viewer and the {userId} path parameter.
func (h *Handler) pair(w http.ResponseWriter, r *http.Request) (domain.UserID, domain.UserID, bool) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return "", "", false
	}
	other, err := domain.ParseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user id"))
		return "", "", false
	}
	return viewer, other, true
}

func (h *Handler) logTransitionFailure(r *http.Request, op string, err error) {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		// Transition rejections are normal user-facing outcomes.
		return
	}
	h.logger.ErrorContext(r.Context(), "failed to "+op,
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err.Error(),
	)
}
