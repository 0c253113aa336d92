package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer     = 64
	writeWait      = 10 * time.Second
	maxFrameSize   = 8 << 10
	defaultPingGap = 30 * time.Second
)

// Client is one authenticated connection.
type Client struct {
	ID     string
	UserID string
	send   chan []byte
	conn   *websocket.Conn
}

// NewClient builds a client for userID; conn may be nil for in-process use.
func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{ID: uuid.NewString(), UserID: userID, send: make(chan []byte, sendBuffer), conn: conn}
}

// Outbox exposes queued frames.
func (c *Client) Outbox() <-chan []byte { return c.send }

// Serve pumps frames in both directions until the connection closes.
func (c *Client) Serve(ctx context.Context, h *Hub, g *Gateway, pingEvery time.Duration) {
	if pingEvery <= 0 {
		pingEvery = defaultPingGap
	}
	h.Register(c)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.writePump(pingEvery)
	c.readPump(ctx, g, pingEvery)
	h.Unregister(c)
}

func (c *Client) readPump(ctx context.Context, g *Gateway, pingEvery time.Duration) {
	defer func() { _ = c.conn.Close() }()
	pongWait := pingEvery * 2
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		g.Handle(ctx, c, raw)
	}
}

func (c *Client) writePump(pingEvery time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
