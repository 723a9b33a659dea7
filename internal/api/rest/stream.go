package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/feral-file/title-scrutiny/internal/logger"
	"github.com/feral-file/title-scrutiny/internal/notify"
	"github.com/feral-file/title-scrutiny/internal/workspace"
)

const (
	defaultPingInterval = 54 * time.Second
	writeWait           = 10 * time.Second
	maxClientMessage    = 512
)

// Stream message types
const (
	StreamSnapshot = "snapshot"
	StreamNotice   = "notice"
	StreamTable    = "table"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamMessage is one frame of the session stream
type StreamMessage struct {
	Type     string                   `json:"type"`
	Snapshot *workspace.Snapshot      `json:"snapshot,omitempty"`
	Notice   *notify.Notice           `json:"notice,omitempty"`
	Table    *workspace.TableSnapshot `json:"table,omitempty"`
}

// streamMessage converts a notice into the frame sent to the client
func streamMessage(s *workspace.Session, notice notify.Notice) (StreamMessage, bool) {
	switch notice.Kind {
	case notify.KindToast:
		return StreamMessage{Type: StreamNotice, Notice: &notice}, true
	case notify.KindTableChanged:
		table, err := s.TableSnapshot(notice.Table)
		if err != nil {
			return StreamMessage{}, false
		}
		return StreamMessage{Type: StreamTable, Table: &table}, true
	default:
		return StreamMessage{}, false
	}
}

func (h *handler) Stream(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WarnCtx(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	notices, unsubscribe := s.Notices()
	defer unsubscribe()

	ctx := logger.WithFields(c.Request.Context(), zap.String("session_id", s.ID()))
	logger.DebugCtx(ctx, "stream opened", zap.String("remote_addr", c.Request.RemoteAddr))

	snapshot := s.Snapshot()
	if err := h.write(conn, StreamMessage{Type: StreamSnapshot, Snapshot: &snapshot}); err != nil {
		return
	}

	done := make(chan struct{})
	go readPump(conn, done, h.cfg.PingInterval)

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			logger.DebugCtx(ctx, "stream closed by client")
			return
		case notice, ok := <-notices:
			if !ok {
				// session closed
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			msg, ok := streamMessage(s, notice)
			if !ok {
				continue
			}
			if err := h.write(conn, msg); err != nil {
				logger.DebugCtx(ctx, "stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *handler) write(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// readPump drains client frames so pongs and close frames are handled
func readPump(conn *websocket.Conn, done chan<- struct{}, pingInterval time.Duration) {
	defer close(done)

	wait := pingInterval + writeWait
	conn.SetReadLimit(maxClientMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
	}
}
