package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"onyx/internal/platform/middleware"
	"onyx/internal/realtime/models"
	"onyx/pkg/domain"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	return &middleware.JWTClaims{UserID: token}, nil
}

type capturingDispatcher struct {
	events []models.NotificationEvent
}

func (d *capturingDispatcher) Dispatch(_ context.Context, ev models.NotificationEvent) {
	d.events = append(d.events, ev)
}

type fixedPresence struct {
	ids []domain.UserID
}

func (p fixedPresence) SnapshotOnlineIDs() []domain.UserID { return p.ids }

func newNotifyRouter(dispatcher Dispatcher, presence Presence) chi.Router {
	router := chi.NewRouter()
	New(dispatcher, presence, slog.New(slog.DiscardHandler), stubValidator{}).Register(router)
	return router
}

func TestDispatchAcceptedAndForwarded(t *testing.T) {
	dispatcher := &capturingDispatcher{}
	router := newNotifyRouter(dispatcher, fixedPresence{})

	body := `{"type":"like","receiverId":"bob","postId":"post-7"}`
	req := httptest.NewRequest(http.MethodPost, "/notifications", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer alice")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, dispatcher.events, 1)
	ev := dispatcher.events[0]
	require.Equal(t, models.KindLike, ev.Kind)
	require.Equal(t, domain.UserID("alice"), ev.SenderID)
	require.Equal(t, domain.UserID("bob"), ev.ReceiverID)
	require.Equal(t, "post-7", ev.PostID)
}

func TestDispatchAcceptedForOfflineReceiver(t *testing.T) {
	// Best-effort delivery: the caller's own operation already succeeded, so
	// an unreachable receiver still yields 202.
	dispatcher := &capturingDispatcher{}
	router := newNotifyRouter(dispatcher, fixedPresence{})

	body := `{"type":"comment","receiverId":"nobody-online","commentId":"c-1"}`
	req := httptest.NewRequest(http.MethodPost, "/notifications", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer alice")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestDispatchRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown type", body: `{"type":"poke","receiverId":"bob"}`},
		{name: "missing receiver", body: `{"type":"like"}`},
		{name: "malformed json", body: `{"type":`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dispatcher := &capturingDispatcher{}
			router := newNotifyRouter(dispatcher, fixedPresence{})

			req := httptest.NewRequest(http.MethodPost, "/notifications", strings.NewReader(tc.body))
			req.Header.Set("Authorization", "Bearer alice")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Empty(t, dispatcher.events)
		})
	}
}

func TestPresenceSnapshot(t *testing.T) {
	router := newNotifyRouter(&capturingDispatcher{}, fixedPresence{ids: []domain.UserID{"u1", "u2"}})

	req := httptest.NewRequest(http.MethodGet, "/presence", nil)
	req.Header.Set("Authorization", "Bearer alice")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		OnlineUserIDs []string `json:"onlineUserIds"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.ElementsMatch(t, []string{"u1", "u2"}, resp.OnlineUserIDs)
}
