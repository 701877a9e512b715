package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"log/slog"

	"designforge/pkg/metrics"
	"designforge/pkg/wire"
)

// Hub owns the room and connection registries and runs the per-connection
// protocol: join, mutation relay, disconnect reconciliation. Both
// registries are constructed here and passed nowhere else; all document
// semantics stay behind Hub methods.
//
// Every room method a handler calls performs the mutation and computes
// the broadcast audience under one lock acquisition, and a join
// registers the peer inside the same critical section that admits it.
// A mutation is therefore visible to each member exactly one way: in
// its join snapshot or as a broadcast.
type Hub struct {
	log   *slog.Logger
	rooms *RoomRegistry
	conns *ConnRegistry
}

// NewHub sets up the hub with empty registries.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{log: logger, rooms: NewRoomRegistry(), conns: NewConnRegistry()}
}

// Rooms exposes the room registry for introspection in tests.
func (h *Hub) Rooms() *RoomRegistry { return h.rooms }

// Conns exposes the connection registry for introspection in tests.
func (h *Hub) Conns() *ConnRegistry { return h.conns }

// ServeWS handles a new /ws connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}
	h.HandleConn(r.Context(), conn)
}

// HandleConn runs the read loop for one connection to completion. Each
// inbound message is handled fully before the next is read, so room
// mutations from a single connection are applied and broadcast in
// order.
func (h *Hub) HandleConn(ctx context.Context, conn Conn) {
	peer := NewPeer(conn)

	// Bound at join time; empty until the connection joins a room.
	var sessionID, roomID string

	defer func() {
		h.Disconnect(sessionID, roomID)
		_ = conn.Close()
	}()

	for {
		var env wire.Envelope
		if err := conn.ReadJSON(ctx, &env); err != nil {
			return
		}
		metrics.WSMessages.WithLabelValues(string(env.Type)).Inc()

		switch env.Type {
		case wire.MsgJoinRoom:
			sid, rid := h.handleJoin(peer, env.Data)
			if sid != "" {
				// A re-join abandons the previous session.
				h.Disconnect(sessionID, roomID)
				sessionID, roomID = sid, rid
			}
		case wire.MsgCursorMove:
			h.handleCursorMove(sessionID, roomID, env.Data)
		case wire.MsgLayerAdd:
			h.handleLayerAdd(sessionID, roomID, env.Data)
		case wire.MsgLayerUpdate:
			h.handleLayerUpdate(sessionID, roomID, env.Data)
		case wire.MsgLayerDelete:
			h.handleLayerDelete(sessionID, roomID, env.Data)
		case wire.MsgRoomJoined, wire.MsgUserJoined, wire.MsgUserLeft, wire.MsgCursorUpdate,
			wire.MsgLayerAdded, wire.MsgLayerUpdated, wire.MsgLayerDeleted:
			// Server-to-client types arriving inbound; drop.
			h.log.Debug("ws.inbound_server_type", "type", env.Type)
		default:
			h.log.Debug("ws.unknown_type", "type", env.Type)
		}
	}
}

// handleJoin admits the connection into a room and replies with the
// full-state snapshot. The peer is registered inside the admission's
// critical section, so any mutation step ordered after the join can
// deliver to it. Returns the bound ids, or empty on a bad payload.
func (h *Hub) handleJoin(peer *Peer, raw json.RawMessage) (string, string) {
	var d wire.JoinRoomData
	if err := json.Unmarshal(raw, &d); err != nil || d.RoomID == "" {
		h.log.Warn("ws.join.bad_payload", "err", err)
		return "", ""
	}

	room, sess, users, layers := h.rooms.Join(d.RoomID, d.User, func(sessionID string) {
		h.conns.Register(sessionID, peer)
	})
	h.updateGauges()

	// Snapshot reply goes only to the joiner. A failed write means the
	// connection is already gone; the disconnect path cleans up.
	reply, err := wire.NewEnvelope(wire.MsgRoomJoined, wire.RoomJoinedData{
		SessionID: sess.SessionID,
		Users:     users,
		Layers:    layers,
	})
	if err == nil {
		if err := peer.Send(reply); err != nil {
			h.log.Debug("ws.join.reply", "session", sess.SessionID, "err", err)
		}
	}

	// The user-joined audience comes from the admission snapshot, so it
	// cannot include members admitted after this step.
	audience := make([]string, 0, len(users)-1)
	for _, u := range users {
		if u.SessionID != sess.SessionID {
			audience = append(audience, u.SessionID)
		}
	}
	if env, err := wire.NewEnvelope(wire.MsgUserJoined, *sess); err == nil {
		h.broadcast(audience, env)
	}

	h.log.Info("ws.join", "room", room.ID, "session", sess.SessionID, "members", len(users))
	return sess.SessionID, room.ID
}

func (h *Hub) handleCursorMove(sessionID, roomID string, raw json.RawMessage) {
	room, ok := h.boundRoom(sessionID, roomID)
	if !ok {
		return
	}
	var d wire.CursorMoveData
	if err := json.Unmarshal(raw, &d); err != nil {
		h.log.Debug("ws.cursor.bad_payload", "err", err)
		return
	}
	ok, audience := room.SetCursor(sessionID, d.Cursor)
	if !ok {
		return
	}
	if env, err := wire.NewEnvelope(wire.MsgCursorUpdate, wire.CursorUpdateData{SessionID: sessionID, Cursor: d.Cursor}); err == nil {
		h.broadcast(audience, env)
	}
}

func (h *Hub) handleLayerAdd(sessionID, roomID string, raw json.RawMessage) {
	room, ok := h.boundRoom(sessionID, roomID)
	if !ok {
		return
	}
	var d wire.LayerAddData
	if err := json.Unmarshal(raw, &d); err != nil {
		h.log.Debug("ws.layer_add.bad_payload", "err", err)
		return
	}
	audience := room.AddLayer(d.Layer, sessionID)
	if env, err := wire.NewEnvelope(wire.MsgLayerAdded, wire.LayerAddedData{Layer: d.Layer, AddedBy: sessionID}); err == nil {
		h.broadcast(audience, env)
	}
}

func (h *Hub) handleLayerUpdate(sessionID, roomID string, raw json.RawMessage) {
	room, ok := h.boundRoom(sessionID, roomID)
	if !ok {
		return
	}
	var d wire.LayerUpdateData
	if err := json.Unmarshal(raw, &d); err != nil {
		h.log.Debug("ws.layer_update.bad_payload", "err", err)
		return
	}
	merged, audience := room.UpdateLayer(d.Layer, sessionID)
	if !merged {
		// Unknown layer id: routine under concurrent edits, drop.
		return
	}
	if env, err := wire.NewEnvelope(wire.MsgLayerUpdated, wire.LayerUpdatedData{Layer: d.Layer, UpdatedBy: sessionID}); err == nil {
		h.broadcast(audience, env)
	}
}

func (h *Hub) handleLayerDelete(sessionID, roomID string, raw json.RawMessage) {
	room, ok := h.boundRoom(sessionID, roomID)
	if !ok {
		return
	}
	var d wire.LayerDeleteData
	if err := json.Unmarshal(raw, &d); err != nil {
		h.log.Debug("ws.layer_delete.bad_payload", "err", err)
		return
	}
	_, audience := room.DeleteLayer(d.LayerID, sessionID)
	if env, err := wire.NewEnvelope(wire.MsgLayerDeleted, wire.LayerDeletedData{LayerID: d.LayerID, DeletedBy: sessionID}); err == nil {
		h.broadcast(audience, env)
	}
}

// Disconnect reconciles a closed connection: remove the member, notify
// the rest of the room, free the room if empty, drop the delivery
// entry. Safe to call twice for the same session, and safe for a
// connection that never joined.
func (h *Hub) Disconnect(sessionID, roomID string) {
	if sessionID == "" || roomID == "" {
		return
	}

	if room, ok := h.rooms.Get(roomID); ok {
		removed, remaining, audience := room.RemoveMember(sessionID)
		if removed {
			if env, err := wire.NewEnvelope(wire.MsgUserLeft, wire.UserLeftData{SessionID: sessionID}); err == nil {
				h.broadcast(audience, env)
			}
			h.log.Info("ws.leave", "room", roomID, "session", sessionID, "members", remaining)
		}
		h.rooms.RemoveIfEmpty(roomID)
	}

	h.conns.Unregister(sessionID)
	h.updateGauges()
}

// boundRoom resolves an operation's target room. Operations before a
// join, or for a room that no longer exists, are logged and dropped.
func (h *Hub) boundRoom(sessionID, roomID string) (*Room, bool) {
	if sessionID == "" || roomID == "" {
		return nil, false
	}
	room, ok := h.rooms.Get(roomID)
	if !ok {
		h.log.Debug("ws.stale_room", "room", roomID, "session", sessionID)
		return nil, false
	}
	return room, true
}

// broadcast fans an envelope out to the given audience. A member whose
// peer is unregistered, or whose write fails, is skipped; the fan-out
// never aborts.
func (h *Hub) broadcast(audience []string, env wire.Envelope) {
	for _, id := range audience {
		peer, ok := h.conns.Lookup(id)
		if !ok {
			continue
		}
		if err := peer.Send(env); err != nil {
			h.log.Debug("ws.broadcast.skip", "session", id, "err", err)
		}
	}
}

func (h *Hub) updateGauges() {
	metrics.ActiveRooms.Set(float64(h.rooms.Count()))
	metrics.ActiveSessions.Set(float64(h.conns.Count()))
}
