package server

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"bridge-server/internal/bridge"
)

var (
	ErrRoomNotFound = errors.New("ROOM_NOT_FOUND: Room not found")
	ErrRoomClosed   = errors.New("ROOM_CLOSED: Room has been closed")
)

// Room serializes every action on one game. Once a room empties with no
// pending grace removal it closes for good and leaves the registry; a later
// join with the same code creates a fresh room.
type Room struct {
	Code      string
	CreatedAt time.Time

	mu        sync.Mutex
	game      *bridge.Game
	updatedAt time.Time
	closed    atomic.Bool
	registry  *Registry
}

// Do runs fn with the room locked. After fn the room is closed if it has no
// players left and nothing is waiting to reconnect.
func (r *Room) Do(fn func(g *bridge.Game) error) error {
	r.mu.Lock()
	if r.closed.Load() {
		r.mu.Unlock()
		return ErrRoomClosed
	}

	err := fn(r.game)
	r.updatedAt = time.Now()

	closing := r.game.IsEmpty() && r.registry.pending(r.Code) == 0
	if closing {
		r.closed.Store(true)
	}
	r.mu.Unlock()

	if closing {
		r.registry.remove(r)
	}
	return err
}

// Read runs fn with the room locked without any bookkeeping. fn must not
// mutate the game.
func (r *Room) Read(fn func(g *bridge.Game)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed.Load() {
		return ErrRoomClosed
	}
	fn(r.game)
	return nil
}

type Registry struct {
	rooms map[string]*Room
	mu    sync.RWMutex

	newGame func(code string) *bridge.Game
	pending func(code string) int
	// onClose runs with the registry locked whenever a room leaves it.
	onClose func(code string)
}

// NewRegistry builds an empty registry. newGame constructs the game of a
// fresh room; pending reports outstanding grace removals for a room code and
// may be nil.
func NewRegistry(newGame func(code string) *bridge.Game, pending func(code string) int) *Registry {
	if newGame == nil {
		newGame = func(code string) *bridge.Game { return bridge.NewGame(code) }
	}
	if pending == nil {
		pending = func(string) int { return 0 }
	}
	return &Registry{
		rooms:   make(map[string]*Room),
		newGame: newGame,
		pending: pending,
	}
}

func (reg *Registry) newRoom(code string) *Room {
	now := time.Now()
	return &Room{
		Code:      code,
		CreatedAt: now,
		game:      reg.newGame(code),
		updatedAt: now,
		registry:  reg,
	}
}

// GetOrCreate returns the room for code, creating it if needed. The code
// must already be validated.
func (reg *Registry) GetOrCreate(code string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if room, ok := reg.rooms[code]; ok {
		return room
	}
	room := reg.newRoom(code)
	reg.rooms[code] = room
	return room
}

// Create opens a room under a freshly generated code.
func (reg *Registry) Create() *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := GenerateRoomCode(func(c string) bool {
		_, taken := reg.rooms[c]
		return taken
	})
	room := reg.newRoom(code)
	reg.rooms[code] = room
	return room
}

func (reg *Registry) Get(code string) (*Room, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	room, ok := reg.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Delete drops code from the registry and closes its room.
func (reg *Registry) Delete(code string) {
	reg.mu.Lock()
	room, ok := reg.rooms[code]
	if ok {
		delete(reg.rooms, code)
		reg.closed(code)
	}
	reg.mu.Unlock()

	if ok {
		room.mu.Lock()
		room.closed.Store(true)
		room.mu.Unlock()
	}
}

// remove drops room only if it is still the one registered under its code.
func (reg *Registry) remove(room *Room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.rooms[room.Code] == room {
		delete(reg.rooms, room.Code)
		reg.closed(room.Code)
	}
}

func (reg *Registry) closed(code string) {
	if reg.onClose != nil {
		reg.onClose(code)
	}
}

// Rooms returns a snapshot of the registered rooms.
func (reg *Registry) Rooms() []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}
