package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/battlesim/internal/game/battle"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// streamBattle upgrades to a websocket and pushes the current snapshot, then
// one snapshot after every accepted intent. The stream closes after the
// battle concludes or is removed, or when the client goes away.
func (s *Server) streamBattle(c *gin.Context) {
	e, err := s.entry(c)
	if err != nil {
		s.fail(c, nil, err)
		return
	}
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	logger := s.logger.With(zap.String("battle_id", e.ID().String()))
	updates, unsubscribe := e.Subscribe()
	defer unsubscribe()

	gone := make(chan struct{})
	go readPump(ws, gone)

	send := func(snap battle.Snapshot) bool {
		_ = ws.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := ws.WriteJSON(snap); err != nil {
			logger.Debug("stream write failed", zap.Error(err))
			return false
		}
		return true
	}

	first := e.Snapshot()
	if !send(first) || first.Phase == battle.PhaseConcluded {
		closeStream(ws, "battle concluded")
		return
	}

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				closeStream(ws, "battle removed")
				return
			}
			if !send(snap) {
				return
			}
			if snap.Phase == battle.PhaseConcluded {
				closeStream(ws, "battle concluded")
				return
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-gone:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

// readPump discards client messages so control frames are processed, and
// closes gone when the client disconnects.
func readPump(ws *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	_ = ws.SetReadDeadline(time.Now().Add(streamPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func closeStream(ws *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteWait))
}
