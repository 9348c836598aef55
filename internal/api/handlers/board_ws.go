package handlers

import (
	"context"
	"dispatch-board-service/internal/adapters/push"
	"dispatch-board-service/internal/api/dto"
	"dispatch-board-service/internal/platform/obs"
	"dispatch-board-service/internal/services"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sendBuffer   = 16
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
)

type wsMessage struct {
	Type string `json:"type"`
}

// BoardWSHandler streams a board to the browser: the current board on
// connect, then every reload of it.
//
// Cross-origin upgrades are refused unless the origin host matches one of
// OriginPatterns.
type BoardWSHandler struct {
	Hub            *push.Hub
	Watcher        *services.BoardWatcher
	Prefs          *services.PreferenceService
	OriginPatterns []string
}

func (h *BoardWSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	query, ok := boardQuery(w, r, h.Prefs)
	if !ok {
		return
	}

	board, err := h.Watcher.Board(r.Context(), query, false)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	snapshot, err := dto.EncodeBoard(board)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.OriginPatterns,
	})
	if err != nil {
		zap.L().Warn("websocket accept failed", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
		return
	}

	client := push.NewClient(uuid.NewString(), query.Key(), sendBuffer)
	client.Send <- snapshot
	h.Hub.Register(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go writeLoop(ctx, conn, client)

	h.readLoop(ctx, conn, client)
}

func (h *BoardWSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *push.Client) {
	defer func() {
		h.Hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				zap.L().Debug("websocket read error", zap.String("client_id", client.ID), zap.Error(err))
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			pong, _ := json.Marshal(wsMessage{Type: "pong"})
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, pong)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, client *push.Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
