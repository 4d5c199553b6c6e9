package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = wsPongTimeout * 9 / 10
)

func (h *Handler) upgrader() websocket.Upgrader {
	allowed := make(map[string]struct{}, len(h.config.CORS.AllowedOrigins))
	for _, o := range h.config.CORS.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, wildcard := allowed["*"]
			_, ok := allowed[origin]
			return wildcard || ok
		},
	}
}

// renamerSocket pushes the caller's session snapshot on connect and after
// every change until the client goes away.
func (h *Handler) renamerSocket(c *gin.Context) {
	id := mustIdentity(c)
	up := h.upgrader()
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	changes, unsubscribe := h.renamerService.Subscribe(id)
	defer unsubscribe()

	// the read side only exists to notice close frames and answer pongs
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Debug().Err(err).Str("user_id", id.UserID).Msg("websocket closed")
				}
				return
			}
		}
	}()

	send := func() error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(h.renamerService.Snapshot(id))
	}
	if err := send(); err != nil {
		return
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return
		case <-changes:
			if err := send(); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
