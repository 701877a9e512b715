package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"designforge/pkg/wire"
)

// Conn abstracts the message transport so the hub can be driven by a
// test double as well as a live websocket.
type Conn interface {
	ReadJSON(ctx context.Context, v any) error
	WriteJSON(ctx context.Context, v any) error
	Close() error
}

// Accept upgrades HTTP to websocket (allow all origins).
func Accept(w http.ResponseWriter, r *http.Request) (Conn, error) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		return nil, err
	}
	return &wsConn{ws: c}, nil
}

type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) ReadJSON(ctx context.Context, v any) error {
	return wsjson.Read(ctx, c.ws, v)
}

func (c *wsConn) WriteJSON(ctx context.Context, v any) error {
	return wsjson.Write(ctx, c.ws, v)
}

func (c *wsConn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "bye")
}

const writeTimeout = 5 * time.Second

// Peer serializes writes to one connection. Delivery is fire-and-forget
// at-most-once: a failed write is the caller's signal to skip this
// member, never to retry.
type Peer struct {
	mu   sync.Mutex
	conn Conn
}

func NewPeer(conn Conn) *Peer {
	return &Peer{conn: conn}
}

// Send writes one envelope with a bounded timeout.
func (p *Peer) Send(env wire.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return p.conn.WriteJSON(ctx, env)
}
