package server

import (
	"errors"
	"sync"
)

// SessionInfo records where a player id is seated. The player id doubles as
// the reconnect credential, so it is only ever sent to its owner.
type SessionInfo struct {
	PlayerID string
	RoomCode string
	Username string
}

type SessionManager struct {
	sessions map[string]SessionInfo // PlayerID -> SessionInfo
	mu       sync.RWMutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]SessionInfo),
	}
}

func (sm *SessionManager) StoreSession(info SessionInfo) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[info.PlayerID] = info
}

func (sm *SessionManager) GetSession(playerID string) (SessionInfo, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[playerID]
	if !exists {
		return SessionInfo{}, errors.New("SESSION_NOT_FOUND: Unknown player id")
	}

	return session, nil
}

func (sm *SessionManager) RemoveSession(playerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, playerID)
}

// RemoveRoom drops every session seated in roomCode.
func (sm *SessionManager) RemoveRoom(roomCode string) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for id, session := range sm.sessions {
		if session.RoomCode == roomCode {
			delete(sm.sessions, id)
			removed++
		}
	}
	return removed
}

func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
