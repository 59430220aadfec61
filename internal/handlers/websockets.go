package handlers

import (
	"net/http"
	"time"

	"fan_controller/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsReadLimit  = 512
)

// stateFrame is the only message the stream sends.
type stateFrame struct {
	Type string          `json:"type"` // always "state"
	Data models.FanState `json:"data"`
}

// The API binds to loopback, so any origin is accepted.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Live controller state
// @Description  Upgrades to a WebSocket. The current snapshot is sent on connect, then one frame per recorded snapshot. Browsers pass the token as access_token.
// @Tags         fan
// @Security     BearerAuth
// @Param        access_token  query  string  false  "JWT when the Authorization header cannot be set"
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	updates, unsubscribe := h.services.Subscribe()
	defer unsubscribe()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Warnw("ws_upgrade_failed", "client_ip", c.ClientIP(), "err", err)
		}
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	current, err := h.services.GetState(ctx)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_initial_state_failed", "err", err)
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "state unavailable"),
			time.Now().Add(wsWriteWait))
		return
	}
	if err := writeState(conn, current); err != nil {
		return
	}

	closed := watchClose(conn)
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := writeState(conn, st); err != nil {
				if h.log != nil {
					h.log.Debugw("ws_write_failed", "err", err)
				}
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func writeState(conn *websocket.Conn, st models.FanState) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(stateFrame{Type: "state", Data: st})
}

// watchClose reads until the peer goes away. Clients send nothing but
// control frames, which the read loop dispatches to the pong handler.
func watchClose(conn *websocket.Conn) <-chan struct{} {
	closed := make(chan struct{})
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	return closed
}
