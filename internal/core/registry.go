package core

import (
	"sync"

	"github.com/meshspace/meshspace-server/internal/proto"
)

// Registry owns the room -> member-set mapping shared by all sessions.
// All cross-session effects go through it; sessions never call each other.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Session]struct{}
}

// NewRegistry creates an empty registry. Each server (and each test) gets
// its own instance.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[*Session]struct{})}
}

// Join adds the session to the room, creating the room entry if absent.
// It returns the members present immediately before the add, so the caller
// can answer "who else is here" consistently with the broadcast that follows.
func (r *Registry) Join(roomID string, s *Session) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[*Session]struct{})
		r.rooms[roomID] = members
	}

	prior := make([]*Session, 0, len(members))
	for m := range members {
		prior = append(prior, m)
	}
	members[s] = struct{}{}
	return prior
}

// Leave removes the session from the room. A no-op if the session is not a
// member. The room entry is dropped once it has no members left.
func (r *Registry) Leave(s *Session, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// Broadcast delivers msg to every current member of the room except exclude.
// Delivery is best-effort per member: a slow or gone recipient is skipped
// and never affects delivery to the others.
func (r *Registry) Broadcast(msg *proto.Outbound, exclude *Session, roomID string) {
	r.mu.RLock()
	members := r.rooms[roomID]
	targets := make([]*Session, 0, len(members))
	for m := range members {
		if m != exclude {
			targets = append(targets, m)
		}
	}
	r.mu.RUnlock()

	for _, t := range targets {
		t.deliver(msg)
	}
}

// MembersOf returns a snapshot of the user ids currently in the room.
func (r *Registry) MembersOf(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomID]
	ids := make([]string, 0, len(members))
	for m := range members {
		ids = append(ids, m.UserID())
	}
	return ids
}
