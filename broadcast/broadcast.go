// Package broadcast fans the role-scoped room snapshot out to every
// connected client. Redaction happens at emission time on every broadcast;
// a display socket can never receive a cached host-shaped payload.
package broadcast

import (
	"encoding/json"

	"github.com/wingnight/gameserver/network"
	"github.com/wingnight/gameserver/room"
	"github.com/wingnight/gameserver/session"
)

// SnapshotEvent is the wire payload every client receives after each
// accepted mutation and once on connect.
type SnapshotEvent struct {
	ClientRole room.Role      `json:"clientRole"`
	RoomState  *room.Snapshot `json:"roomState"`
}

// Broadcaster emits snapshots to connected clients.
type Broadcaster interface {
	BroadcastSnapshot()
	SendSnapshot(s *session.Session) error
}

// RoomBroadcaster projects the single room per role and writes to every
// session.
type RoomBroadcaster struct {
	room     *room.Room
	sessions *session.Manager
}

func NewRoomBroadcaster(r *room.Room, sessions *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		room:     r,
		sessions: sessions,
	}
}

// BroadcastSnapshot emits a freshly projected snapshot to all sessions.
// Each role's projection is derived once per emission and marshaled once.
func (b *RoomBroadcaster) BroadcastSnapshot() {
	payloads := map[room.Role][]byte{}
	for _, s := range b.sessions.All() {
		payload, ok := payloads[s.Role]
		if !ok {
			encoded, err := json.Marshal(SnapshotEvent{
				ClientRole: s.Role,
				RoomState:  b.room.Project(s.Role),
			})
			if err != nil {
				continue
			}
			payloads[s.Role] = encoded
			payload = encoded
		}
		// A failed write is the reader's problem; its read loop will
		// observe the close and drop the session.
		_ = s.Send(network.MsgTypeSnapshot, payload)
	}
}

// SendSnapshot delivers the current snapshot to a single session, used on
// connect and role resolution.
func (b *RoomBroadcaster) SendSnapshot(s *session.Session) error {
	return s.SendJSON(network.MsgTypeSnapshot, SnapshotEvent{
		ClientRole: s.Role,
		RoomState:  b.room.Project(s.Role),
	})
}
