package server

import (
	"encoding/json"
	"net"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wingnight/gameserver/broadcast"
	"github.com/wingnight/gameserver/content"
	"github.com/wingnight/gameserver/logger"
	"github.com/wingnight/gameserver/minigame"
	"github.com/wingnight/gameserver/minigame/trivia"
	"github.com/wingnight/gameserver/monitor"
	"github.com/wingnight/gameserver/network"
	"github.com/wingnight/gameserver/room"
	"github.com/wingnight/gameserver/session"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop().Sugar()
	os.Exit(m.Run())
}

// recordingConn captures everything written to it.
type recordingConn struct {
	msgIDs   []uint16
	payloads [][]byte
}

func (c *recordingConn) Send(msgID uint16, data []byte) error {
	c.msgIDs = append(c.msgIDs, msgID)
	c.payloads = append(c.payloads, data)
	return nil
}
func (c *recordingConn) SendJSON(msgID uint16, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(msgID, data)
}
func (c *recordingConn) Close() error                         { return nil }
func (c *recordingConn) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (c *recordingConn) SetHeartbeat(interval time.Duration)  {}
func (c *recordingConn) ReadPacket() (*network.Packet, error) { return nil, nil }

func testPack() *content.Pack {
	return &content.Pack{
		Players: []content.Player{{ID: "p1", Name: "Ana"}, {ID: "p2", Name: "Ben"}},
		Game: content.GameConfig{
			Rounds: []content.RoundConfig{
				{Label: "Round 1", Sauce: "Mild", PointsPerPlayer: 2, Minigame: "trivia", EatingSeconds: 120},
			},
			Scoring: content.ScoringConfig{DefaultPointsMax: 15, FinalRoundPointsMax: 30},
		},
		Trivia: []content.TriviaPrompt{{Question: "q1", Answer: "a1"}},
	}
}

// newTestServer wires a GameServer without binding any listeners. Each test
// gets its own metric namespace; the prometheus default registry is global.
func newTestServer(namespace string) *GameServer {
	registry := minigame.NewRegistry()
	registry.Register(trivia.New(), "Trivia")
	r := room.New(testPack(), minigame.NewOrchestrator(registry), 60)

	sessions := session.NewManager()
	return &GameServer{
		room:         r,
		sessions:     sessions,
		broadcaster:  broadcast.NewRoomBroadcaster(r, sessions),
		mon:          monitor.NewMonitor(namespace),
		shutdownChan: make(chan struct{}),
	}
}

func addSession(s *GameServer, id string, role room.Role) (*session.Session, *recordingConn) {
	conn := &recordingConn{}
	sess := session.NewSession(id, conn, role)
	s.sessions.Add(sess)
	return sess, conn
}

func claimSecret(t *testing.T, s *GameServer, sess *session.Session, conn *recordingConn) string {
	t.Helper()
	s.handlePacket(sess, &network.Packet{MsgID: network.MsgTypeClaimHost})
	if len(conn.msgIDs) == 0 || conn.msgIDs[len(conn.msgIDs)-1] != network.MsgTypeHostSecret {
		t.Fatalf("expected host secret reply, got %v", conn.msgIDs)
	}
	var event hostSecretEvent
	if err := json.Unmarshal(conn.payloads[len(conn.payloads)-1], &event); err != nil {
		t.Fatalf("host secret payload did not decode: %v", err)
	}
	if event.Secret == "" {
		t.Fatal("host secret must not be empty")
	}
	return event.Secret
}

func commandPacket(t *testing.T, msgID uint16, payload map[string]any) *network.Packet {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &network.Packet{MsgID: msgID, Data: data}
}

func TestClaimHost_DisplayRoleRejected(t *testing.T) {
	s := newTestServer("srvtest_claim_display")
	sess, conn := addSession(s, "d1", room.RoleDisplay)

	s.handlePacket(sess, &network.Packet{MsgID: network.MsgTypeClaimHost})

	if len(conn.msgIDs) != 0 {
		t.Fatalf("display session must not receive a host secret, got %v", conn.msgIDs)
	}
}

func TestClaimHost_LastIssuerWins(t *testing.T) {
	s := newTestServer("srvtest_claim_twice")
	sess, conn := addSession(s, "h1", room.RoleHost)

	first := claimSecret(t, s, sess, conn)
	second := claimSecret(t, s, sess, conn)

	if first == second {
		t.Fatal("re-claim must rotate the secret")
	}
	if s.room.Authority().Validate(first) {
		t.Error("the previous secret must be invalid after a re-claim")
	}
	if !s.room.Authority().Validate(second) {
		t.Error("the latest secret must be valid")
	}
}

func TestMutatingCommand_InvalidSecret(t *testing.T) {
	s := newTestServer("srvtest_bad_secret")
	sess, conn := addSession(s, "h1", room.RoleHost)
	claimSecret(t, s, sess, conn)

	s.handlePacket(sess, commandPacket(t, network.MsgTypeAdvancePhase, map[string]any{
		"secret": "wrong",
	}))

	last := conn.msgIDs[len(conn.msgIDs)-1]
	if last != network.MsgTypeError {
		t.Fatalf("expected error signal, got message %d", last)
	}
	var sig errorSignal
	if err := json.Unmarshal(conn.payloads[len(conn.payloads)-1], &sig); err != nil {
		t.Fatalf("error payload did not decode: %v", err)
	}
	if sig.Code != "invalid_secret" {
		t.Errorf("expected code invalid_secret, got %q", sig.Code)
	}
	if s.room.Project(room.RoleHost).Phase != room.PhaseSetup {
		t.Error("a rejected command must not mutate the room")
	}
}

func TestMutatingCommand_NoSecretIssuedYet(t *testing.T) {
	s := newTestServer("srvtest_no_secret")
	sess, conn := addSession(s, "h1", room.RoleHost)

	// An empty secret never validates, even before any claim happened.
	s.handlePacket(sess, commandPacket(t, network.MsgTypeAdvancePhase, map[string]any{}))

	if len(conn.msgIDs) == 0 || conn.msgIDs[len(conn.msgIDs)-1] != network.MsgTypeError {
		t.Fatalf("expected error signal, got %v", conn.msgIDs)
	}
}

func TestMutatingCommand_AcceptedBroadcasts(t *testing.T) {
	s := newTestServer("srvtest_accept")
	hostSess, hostConn := addSession(s, "h1", room.RoleHost)
	_, displayConn := addSession(s, "d1", room.RoleDisplay)
	secret := claimSecret(t, s, hostSess, hostConn)

	s.handlePacket(hostSess, commandPacket(t, network.MsgTypeCreateTeam, map[string]any{
		"secret": secret,
		"name":   "Cluck Norris",
	}))

	// Every connected session gets a snapshot after an accepted mutation.
	if len(displayConn.msgIDs) != 1 || displayConn.msgIDs[0] != network.MsgTypeSnapshot {
		t.Fatalf("display should receive a snapshot broadcast, got %v", displayConn.msgIDs)
	}
	snap := s.room.Project(room.RoleHost)
	if len(snap.Teams) != 1 || snap.Teams[0].Name != "Cluck Norris" {
		t.Fatalf("team creation did not apply: %+v", snap.Teams)
	}
}

func TestMutatingCommand_DomainRejectionIsSilent(t *testing.T) {
	s := newTestServer("srvtest_domain_reject")
	hostSess, hostConn := addSession(s, "h1", room.RoleHost)
	_, displayConn := addSession(s, "d1", room.RoleDisplay)
	secret := claimSecret(t, s, hostSess, hostConn)

	// Empty team name is a domain rejection: no error signal, no broadcast.
	s.handlePacket(hostSess, commandPacket(t, network.MsgTypeCreateTeam, map[string]any{
		"secret": secret,
		"name":   "",
	}))

	if len(displayConn.msgIDs) != 0 {
		t.Fatalf("rejected command must not broadcast, got %v", displayConn.msgIDs)
	}
	for _, id := range hostConn.msgIDs {
		if id == network.MsgTypeError {
			t.Fatal("domain rejections must not emit the invalid_secret signal")
		}
	}
}

func TestApplyCommand_MalformedPayloads(t *testing.T) {
	s := newTestServer("srvtest_malformed")

	tests := []struct {
		name  string
		msgID uint16
	}{
		{"reorder", network.MsgTypeReorderTurns},
		{"create team", network.MsgTypeCreateTeam},
		{"assign player", network.MsgTypeAssignPlayer},
		{"wing participation", network.MsgTypeWingParticipation},
		{"adjust score", network.MsgTypeAdjustScore},
		{"minigame action", network.MsgTypeMinigameAction},
		{"extend timer", network.MsgTypeExtendTimer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, applied := s.applyCommand(&network.Packet{MsgID: tt.msgID, Data: []byte("{not json")})
			if applied {
				t.Error("malformed payload must be rejected")
			}
		})
	}
}

func TestApplyCommand_UnknownMessage(t *testing.T) {
	s := newTestServer("srvtest_unknown")
	name, applied := s.applyCommand(&network.Packet{MsgID: 999})
	if applied || name != "unknown" {
		t.Errorf("unknown message must be rejected, got %q %v", name, applied)
	}
}

func TestHeartbeat_TouchesSession(t *testing.T) {
	s := newTestServer("srvtest_heartbeat")
	sess, conn := addSession(s, "d1", room.RoleDisplay)
	before := sess.LastActive

	time.Sleep(time.Millisecond)
	s.handlePacket(sess, &network.Packet{MsgID: network.MsgTypeHeartbeat})

	if !sess.LastActive.After(before) {
		t.Error("heartbeat should advance LastActive")
	}
	if len(conn.msgIDs) != 0 {
		t.Errorf("heartbeat must not produce a reply, got %v", conn.msgIDs)
	}
}
