package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxInboundFrameBytes = 4096
)

// wsConn adapts one gorilla connection to the registry's Pusher contract.
// All writes funnel through the buffered send channel and a single write
// pump goroutine; Push never blocks the caller.
type wsConn struct {
	socket *websocket.Conn
	send   chan any
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func newWSConn(socket *websocket.Conn, buffer int, logger *slog.Logger) *wsConn {
	return &wsConn{
		socket: socket,
		send:   make(chan any, buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Push queues a frame for delivery. Returns false when the connection is
// closed or its queue is full; the frame is then lost, which is the delivery
// model: a lagging client misses frames rather than stalling the core.
func (c *wsConn) Push(frame any) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// close signals the write pump to finish. Safe to call more than once.
func (c *wsConn) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// writePump serializes all socket writes. It owns the socket's write side
// and closes the socket when it exits, which also unblocks the read loop.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.socket.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteJSON(frame); err != nil {
				c.logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.socket.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
