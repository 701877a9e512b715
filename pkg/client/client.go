// Package client keeps a local replica of a collaboration room in sync
// with the server: optimistic local edits, remote-event merging with
// origin-echo discard, and a fixed-delay reconnect that re-runs the
// join protocol from scratch. Edits made while disconnected stay in the
// local replica only; there is no offline queue to flush on reconnect.
package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"log/slog"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"designforge/pkg/design"
	"designforge/pkg/wire"
)

const (
	defaultRetryDelay = 3 * time.Second
	sendTimeout       = 5 * time.Second
)

// Option configures a Client.
type Option func(*Client)

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.log = l } }

// WithRetryDelay sets the constant reconnect delay.
func WithRetryDelay(d time.Duration) Option { return func(c *Client) { c.retry = d } }

// WithEventHandler registers a callback invoked for every remote event
// applied to the replica, after the merge.
func WithEventHandler(fn func(wire.Envelope)) Option { return func(c *Client) { c.onEvent = fn } }

// WithStatusHandler registers a callback for connect/disconnect edges.
func WithStatusHandler(fn func(connected bool)) Option { return func(c *Client) { c.onStatus = fn } }

// Client is one collaborator's connection to a room.
type Client struct {
	url    string
	roomID string
	user   wire.UserInfo
	log    *slog.Logger
	retry  time.Duration

	replica  *Replica
	onEvent  func(wire.Envelope)
	onStatus func(bool)

	mu        sync.Mutex
	conn      *websocket.Conn
	sessionID string
}

// New builds a client for the given server URL and room. Run starts it.
func New(url, roomID string, user wire.UserInfo, opts ...Option) *Client {
	c := &Client{
		url:     url,
		roomID:  roomID,
		user:    user,
		log:     slog.Default(),
		retry:   defaultRetryDelay,
		replica: NewReplica(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Replica exposes the local document state.
func (c *Client) Replica() *Replica { return c.replica }

// SessionID returns the server-assigned session id for the current
// connection, empty while disconnected.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Run connects and keeps the session alive until ctx is cancelled,
// re-running the join protocol after each drop. Cancelling ctx is the
// only way to stop the retry loop.
func (c *Client) Run(ctx context.Context) {
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		c.log.Debug("client.disconnected", "err", err)
		c.setStatus(false)

		select {
		case <-time.After(c.retry):
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	c.mu.Lock()
	c.conn = conn
	c.sessionID = ""
	c.mu.Unlock()

	join, err := wire.NewEnvelope(wire.MsgJoinRoom, wire.JoinRoomData{RoomID: c.roomID, User: c.user})
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, conn, join); err != nil {
		return err
	}

	for {
		var env wire.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			c.mu.Lock()
			c.conn = nil
			c.sessionID = ""
			c.mu.Unlock()
			return err
		}
		c.handle(env)
	}
}

// handle routes one server event: the join reply binds the session and
// resets the replica; everything else is merged via Replica.Apply with
// origin-echo discard.
func (c *Client) handle(env wire.Envelope) {
	if env.Type == wire.MsgRoomJoined {
		var d wire.RoomJoinedData
		if json.Unmarshal(env.Data, &d) != nil {
			return
		}
		c.mu.Lock()
		c.sessionID = d.SessionID
		c.mu.Unlock()
		c.replica.Reset(d.Users, d.Layers)
		c.setStatus(true)
		c.log.Debug("client.joined", "room", c.roomID, "session", d.SessionID)
		if c.onEvent != nil {
			c.onEvent(env)
		}
		return
	}

	if !c.replica.Apply(env, c.SessionID()) {
		return
	}
	if c.onEvent != nil {
		c.onEvent(env)
	}
}

// AddLayer applies the layer locally and propagates it to the room.
func (c *Client) AddLayer(l design.Layer) {
	c.replica.AddLayer(l)
	c.send(wire.MsgLayerAdd, wire.LayerAddData{Layer: l})
}

// UpdateLayer shallow-merges the given fields into the layer locally
// and sends the partial update (id plus changed fields only).
func (c *Client) UpdateLayer(id string, fields map[string]any) {
	patch := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		patch[k] = v
	}
	patch["id"] = id

	raw, err := json.Marshal(patch)
	if err != nil {
		return
	}
	c.replica.MergeLayer(raw)
	c.send(wire.MsgLayerUpdate, wire.LayerUpdateData{Layer: raw})
}

// DeleteLayer removes the layer locally and propagates the delete.
func (c *Client) DeleteLayer(id string) {
	c.replica.DeleteLayer(id)
	c.send(wire.MsgLayerDelete, wire.LayerDeleteData{LayerID: id})
}

// MoveCursor reports this collaborator's cursor position.
func (c *Client) MoveCursor(x, y float64) {
	c.send(wire.MsgCursorMove, wire.CursorMoveData{Cursor: design.Cursor{X: x, Y: y}})
}

// send ships one operation if connected; while disconnected the edit
// stays local-only until some later action after the rejoin.
func (c *Client) send(t wire.MsgType, v any) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		c.log.Debug("client.offline_drop", "type", t)
		return
	}

	env, err := wire.NewEnvelope(t, v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, env); err != nil {
		c.log.Debug("client.send", "type", t, "err", err)
	}
}

func (c *Client) setStatus(connected bool) {
	if c.onStatus != nil {
		c.onStatus(connected)
	}
}
