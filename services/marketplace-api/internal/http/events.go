package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"artisanhub/services/marketplace-api/internal/identity"
	"artisanhub/services/marketplace-api/internal/session"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// NewUpgrader accepts websocket origins from the CORS allow list; "*" admits all.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
}

type authEvent struct {
	Event   identity.EventKind `json:"event"`
	Session identity.Session   `json:"session"`
}

// AuthEvents streams sign-in and sign-out changes of the caller's account.
// The stream ends after the caller's own session signs out.
func (h *Handlers) AuthEvents(w http.ResponseWriter, r *http.Request) {
	e, _ := session.FromContext(r.Context())
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	events := make(chan identity.Event, 8)
	unsubscribe := h.Events.Subscribe(func(_ context.Context, ev identity.Event) {
		if ev.Session.AccountID != e.Session.AccountID {
			return
		}
		select {
		case events <- ev:
		default:
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	if err := h.send(conn, authEvent{Event: identity.SignedIn, Session: e.Session}); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case ev := <-events:
			if err := h.send(conn, authEvent{Event: ev.Kind, Session: ev.Session}); err != nil {
				return
			}
			if ev.Kind == identity.SignedOut && ev.Session.ID == e.Session.ID {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "signed out"),
					time.Now().Add(wsWriteWait))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (h *Handlers) send(conn *websocket.Conn, v authEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}
