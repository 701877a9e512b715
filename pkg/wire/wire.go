// Package wire defines the collaboration protocol: the message
// catalogue, the {type, data} envelope, and the payload types shared by
// the server and client libraries.
package wire

import (
	"encoding/json"
	"fmt"

	"designforge/pkg/design"
)

// MsgType identifies a wire message.
type MsgType string

const (
	// Client to server.
	MsgJoinRoom    MsgType = "join-room"
	MsgCursorMove  MsgType = "cursor-move"
	MsgLayerAdd    MsgType = "layer-add"
	MsgLayerUpdate MsgType = "layer-update"
	MsgLayerDelete MsgType = "layer-delete"

	// Server to client.
	MsgRoomJoined   MsgType = "room-joined"
	MsgUserJoined   MsgType = "user-joined"
	MsgUserLeft     MsgType = "user-left"
	MsgCursorUpdate MsgType = "cursor-update"
	MsgLayerAdded   MsgType = "layer-added"
	MsgLayerUpdated MsgType = "layer-updated"
	MsgLayerDeleted MsgType = "layer-deleted"
)

// Envelope is the wire form of every message: {type, data}.
type Envelope struct {
	Type MsgType         `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewEnvelope marshals v into an envelope of the given type.
func NewEnvelope(t MsgType, v any) (Envelope, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", t, err)
	}
	return Envelope{Type: t, Data: raw}, nil
}

// UserInfo is the client-supplied identity in a join request. The name
// is accepted as-is, empty included.
type UserInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Session is one connected participant within a room, as broadcast to
// peers. The session id is server-assigned and scopes all presence and
// mutation attribution.
type Session struct {
	UserID    string         `json:"id"`
	Name      string         `json:"name"`
	Color     string         `json:"color"`
	Cursor    *design.Cursor `json:"cursor,omitempty"`
	SessionID string         `json:"sessionId"`
}

type JoinRoomData struct {
	RoomID string   `json:"roomId"`
	User   UserInfo `json:"user"`
}

// RoomJoinedData is the snapshot reply sent only to the joiner.
type RoomJoinedData struct {
	SessionID string         `json:"sessionId"`
	Users     []Session      `json:"users"`
	Layers    []design.Layer `json:"layers"`
}

type UserLeftData struct {
	SessionID string `json:"sessionId"`
}

type CursorMoveData struct {
	Cursor design.Cursor `json:"cursor"`
}

type CursorUpdateData struct {
	SessionID string        `json:"sessionId"`
	Cursor    design.Cursor `json:"cursor"`
}

type LayerAddData struct {
	Layer design.Layer `json:"layer"`
}

type LayerAddedData struct {
	Layer   design.Layer `json:"layer"`
	AddedBy string       `json:"addedBy"`
}

// LayerUpdateData carries a partial layer: the id plus whichever fields
// changed. The patch is kept raw so the merge and the rebroadcast both
// see exactly the fields that were sent.
type LayerUpdateData struct {
	Layer json.RawMessage `json:"layer"`
}

type LayerUpdatedData struct {
	Layer     json.RawMessage `json:"layer"`
	UpdatedBy string          `json:"updatedBy"`
}

type LayerDeleteData struct {
	LayerID string `json:"layerId"`
}

type LayerDeletedData struct {
	LayerID   string `json:"layerId"`
	DeletedBy string `json:"deletedBy"`
}
