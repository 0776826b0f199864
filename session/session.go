// Package session tracks connected clients and the role each resolved to
// when it connected. Sessions never mutate room state themselves; they are
// the fanout targets for role-scoped snapshots.
package session

import (
	"sync"
	"time"

	"github.com/wingnight/gameserver/network"
	"github.com/wingnight/gameserver/room"
)

type Session struct {
	ID         string
	Conn       network.Connection
	Role       room.Role
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.Mutex
}

func NewSession(id string, conn network.Connection, role room.Role) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		Role:       role,
		CreatedAt:  now,
		LastActive: now,
	}
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.Touch()
	return s.Conn.Send(msgID, data)
}

func (s *Session) SendJSON(msgID uint16, v any) error {
	s.Touch()
	return s.Conn.SendJSON(msgID, v)
}

// Touch records activity, used by the heartbeat.
func (s *Session) Touch() {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager holds all live sessions.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(s *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[s.ID] = s
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	s, exists := m.sessions[sessionID]
	return s, exists
}

// All returns a point-in-time copy of the live sessions.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) CountByRole(role room.Role) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	count := 0
	for _, s := range m.sessions {
		if s.Role == role {
			count++
		}
	}
	return count
}
