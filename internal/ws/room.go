package ws

import (
	"encoding/json"
	"sync"

	"designforge/pkg/design"
	"designforge/pkg/wire"
)

// Room is one collaborative document: a member set plus the
// authoritative layer collection. Every handling step holds the room
// mutex once, across both the mutation and the broadcast-audience
// computation, so a concurrent join is ordered strictly before or
// strictly after the whole step. A joiner therefore gets each mutation
// exactly one way: in its snapshot, or as a broadcast, never both and
// never neither.
type Room struct {
	ID string

	mu      sync.Mutex
	members map[string]*wire.Session // by session id
	layers  []design.Layer
}

func newRoom(id string) *Room {
	return &Room{ID: id, members: map[string]*wire.Session{}}
}

// AddMember creates a session for the given user, assigns the next
// palette color by current member count, and returns it together with
// a snapshot of the room taken after the insert. The snapshot is what
// lets a late joiner converge without any operation history. The
// register hook, when non-nil, runs inside the critical section, so
// the member is reachable for delivery before any later step can list
// it in an audience.
func (r *Room) AddMember(user wire.UserInfo, register func(sessionID string)) (*wire.Session, []wire.Session, []design.Layer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &wire.Session{
		UserID:    user.ID,
		Name:      user.Name,
		Color:     palette[len(r.members)%len(palette)],
		SessionID: newSessionID(),
	}
	r.members[s.SessionID] = s
	if register != nil {
		register(s.SessionID)
	}
	return s, r.membersLocked(), r.layersLocked()
}

// RemoveMember deletes the session; a second removal of the same id is
// a no-op. Returns whether a member was actually removed, the
// remaining member count, and the remaining members as the departure
// broadcast audience.
func (r *Room) RemoveMember(sessionID string) (bool, int, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.members[sessionID]
	delete(r.members, sessionID)
	return ok, len(r.members), r.audienceLocked(sessionID)
}

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// MemberIDs returns the session ids of all members except the given
// one.
func (r *Room) MemberIDs(except string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.audienceLocked(except)
}

// SetCursor records the member's last-known cursor position. Returns
// false if the session is not (or no longer) a member, otherwise the
// relay audience.
func (r *Room) SetCursor(sessionID string, c design.Cursor) (bool, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.members[sessionID]
	if !ok {
		return false, nil
	}
	cur := c
	s.Cursor = &cur
	return true, r.audienceLocked(sessionID)
}

// AddLayer appends a layer and returns the broadcast audience. Ids are
// trusted to be unique; there is no duplicate check.
func (r *Room) AddLayer(l design.Layer, origin string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.layers = append(r.layers, l)
	return r.audienceLocked(origin)
}

// UpdateLayer shallow-merges the JSON patch into the layer it names.
// Fields absent from the patch keep their current value. A patch for an
// unknown id is dropped; that is routine under concurrent edits.
func (r *Room) UpdateLayer(patch json.RawMessage, origin string) (bool, []string) {
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(patch, &ref); err != nil || ref.ID == "" {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.layers {
		if r.layers[i].ID == ref.ID {
			if err := json.Unmarshal(patch, &r.layers[i]); err != nil {
				return false, nil
			}
			return true, r.audienceLocked(origin)
		}
	}
	return false, nil
}

// DeleteLayer removes the layer with the given id; absent id is a
// no-op. The audience is returned either way, since a delete is
// relayed even when the layer was already gone.
func (r *Room) DeleteLayer(id, origin string) (bool, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.layers {
		if r.layers[i].ID == id {
			r.layers = append(r.layers[:i], r.layers[i+1:]...)
			return true, r.audienceLocked(origin)
		}
	}
	return false, r.audienceLocked(origin)
}

// Snapshot returns copies of the member list and layer collection.
func (r *Room) Snapshot() ([]wire.Session, []design.Layer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.membersLocked(), r.layersLocked()
}

func (r *Room) audienceLocked(except string) []string {
	out := make([]string, 0, len(r.members))
	for id := range r.members {
		if id != except {
			out = append(out, id)
		}
	}
	return out
}

func (r *Room) membersLocked() []wire.Session {
	out := make([]wire.Session, 0, len(r.members))
	for _, s := range r.members {
		out = append(out, *s)
	}
	return out
}

func (r *Room) layersLocked() []design.Layer {
	out := make([]design.Layer, len(r.layers))
	copy(out, r.layers)
	return out
}
