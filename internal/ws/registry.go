package ws

import (
	"sync"

	"designforge/pkg/design"
	"designforge/pkg/wire"
)

// ConnRegistry maps session ids to reachable peers. It is a non-owning
// lookup table used only for delivery: an entry never keeps a
// connection alive, and a room member missing here is simply skipped
// during a broadcast (the disconnect path has not caught up yet).
type ConnRegistry struct {
	mu    sync.RWMutex
	peers map[string]*Peer
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{peers: map[string]*Peer{}}
}

// Register inserts or replaces the peer for a session id.
func (r *ConnRegistry) Register(sessionID string, p *Peer) {
	r.mu.Lock()
	r.peers[sessionID] = p
	r.mu.Unlock()
}

// Lookup returns the peer for a session id, if currently reachable.
func (r *ConnRegistry) Lookup(sessionID string) (*Peer, bool) {
	r.mu.RLock()
	p, ok := r.peers[sessionID]
	r.mu.RUnlock()
	return p, ok
}

// Unregister removes the mapping; idempotent.
func (r *ConnRegistry) Unregister(sessionID string) {
	r.mu.Lock()
	delete(r.peers, sessionID)
	r.mu.Unlock()
}

func (r *ConnRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// RoomRegistry owns the active rooms. A room exists iff it has at
// least one member: it is created lazily on first join and deleted in
// the same handling step that removes its last member.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: map[string]*Room{}}
}

// GetOrCreate returns the room, creating an empty one if unknown.
func (r *RoomRegistry) GetOrCreate(id string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.rooms[id]
	if rm == nil {
		rm = newRoom(id)
		r.rooms[id] = rm
	}
	return rm
}

// Join atomically resolves the room (creating it if needed) and admits
// the user. Holding the registry lock across the insert means a
// concurrent RemoveIfEmpty can never reap the room between creation
// and first membership. The register hook is passed through to
// Room.AddMember and runs inside the room's critical section.
func (r *RoomRegistry) Join(roomID string, user wire.UserInfo, register func(sessionID string)) (*Room, *wire.Session, []wire.Session, []design.Layer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.rooms[roomID]
	if rm == nil {
		rm = newRoom(roomID)
		r.rooms[roomID] = rm
	}
	sess, users, layers := rm.AddMember(user, register)
	return rm, sess, users, layers
}

// Get is a read-only lookup. Mutation handlers treat absence as "log
// and drop", never as an error to the transport.
func (r *RoomRegistry) Get(id string) (*Room, bool) {
	r.mu.RLock()
	rm, ok := r.rooms[id]
	r.mu.RUnlock()
	return rm, ok
}

// RemoveIfEmpty deletes the room entry when its member set is empty.
func (r *RoomRegistry) RemoveIfEmpty(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rm, ok := r.rooms[id]; ok && rm.MemberCount() == 0 {
		delete(r.rooms, id)
	}
}

func (r *RoomRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
