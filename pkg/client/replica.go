package client

import (
	"encoding/json"
	"sort"
	"sync"

	"designforge/pkg/design"
	"designforge/pkg/wire"
)

// Replica is the local copy of a room: the layer collection and the
// member list. Local edits are applied optimistically before they are
// sent; remote events are merged with the same semantics the server
// uses (append on add, shallow JSON merge on update, filter on delete).
// All methods are safe for concurrent use; events must still be applied
// in arrival order to preserve last-write-wins.
type Replica struct {
	mu     sync.RWMutex
	layers []design.Layer
	users  map[string]wire.Session
}

func NewReplica() *Replica {
	return &Replica{users: map[string]wire.Session{}}
}

// Reset replaces all state with a join snapshot.
func (r *Replica) Reset(users []wire.Session, layers []design.Layer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.layers = append([]design.Layer(nil), layers...)
	r.users = make(map[string]wire.Session, len(users))
	for _, u := range users {
		r.users[u.SessionID] = u
	}
}

// Layers returns the layer collection in paint order (by z-index).
func (r *Replica) Layers() []design.Layer {
	r.mu.RLock()
	out := append([]design.Layer(nil), r.layers...)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// Layer returns the layer with the given id, if present.
func (r *Replica) Layer(id string) (design.Layer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.layers {
		if l.ID == id {
			return l, true
		}
	}
	return design.Layer{}, false
}

// Users returns the current member list.
func (r *Replica) Users() []wire.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]wire.Session, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out
}

func (r *Replica) AddLayer(l design.Layer) {
	r.mu.Lock()
	r.layers = append(r.layers, l)
	r.mu.Unlock()
}

// MergeLayer shallow-merges a JSON patch into the layer it names;
// unknown ids are dropped.
func (r *Replica) MergeLayer(patch json.RawMessage) bool {
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(patch, &ref); err != nil || ref.ID == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.layers {
		if r.layers[i].ID == ref.ID {
			return json.Unmarshal(patch, &r.layers[i]) == nil
		}
	}
	return false
}

func (r *Replica) DeleteLayer(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.layers {
		if r.layers[i].ID == id {
			r.layers = append(r.layers[:i], r.layers[i+1:]...)
			return
		}
	}
}

func (r *Replica) AddUser(u wire.Session) {
	r.mu.Lock()
	r.users[u.SessionID] = u
	r.mu.Unlock()
}

func (r *Replica) RemoveUser(sessionID string) {
	r.mu.Lock()
	delete(r.users, sessionID)
	r.mu.Unlock()
}

func (r *Replica) SetCursor(sessionID string, c design.Cursor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[sessionID]; ok {
		cur := c
		u.Cursor = &cur
		r.users[sessionID] = u
	}
}

// Apply merges one remote broadcast into the replica. Events whose
// origin equals self are discarded: the server already excludes the
// origin from fan-out, so this guard should never fire, but a
// double-apply would corrupt the optimistically updated state. Returns
// whether the event was applied.
func (r *Replica) Apply(env wire.Envelope, self string) bool {
	switch env.Type {
	case wire.MsgUserJoined:
		var s wire.Session
		if json.Unmarshal(env.Data, &s) != nil || s.SessionID == self {
			return false
		}
		r.AddUser(s)

	case wire.MsgUserLeft:
		var d wire.UserLeftData
		if json.Unmarshal(env.Data, &d) != nil {
			return false
		}
		r.RemoveUser(d.SessionID)

	case wire.MsgCursorUpdate:
		var d wire.CursorUpdateData
		if json.Unmarshal(env.Data, &d) != nil || d.SessionID == self {
			return false
		}
		r.SetCursor(d.SessionID, d.Cursor)

	case wire.MsgLayerAdded:
		var d wire.LayerAddedData
		if json.Unmarshal(env.Data, &d) != nil || d.AddedBy == self {
			return false
		}
		r.AddLayer(d.Layer)

	case wire.MsgLayerUpdated:
		var d wire.LayerUpdatedData
		if json.Unmarshal(env.Data, &d) != nil || d.UpdatedBy == self {
			return false
		}
		r.MergeLayer(d.Layer)

	case wire.MsgLayerDeleted:
		var d wire.LayerDeletedData
		if json.Unmarshal(env.Data, &d) != nil || d.DeletedBy == self {
			return false
		}
		r.DeleteLayer(d.LayerID)

	default:
		return false
	}
	return true
}
