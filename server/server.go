// Package server owns the websocket surface: it resolves each connection's
// role once, validates the host bearer secret on every mutating command,
// applies the mutation, and re-broadcasts the role-scoped snapshot to every
// connected client when, and only when, a mutation was accepted.
package server

import (
	"encoding/json"
	"net/http"
	netrpc "net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wingnight/gameserver/broadcast"
	"github.com/wingnight/gameserver/config"
	"github.com/wingnight/gameserver/logger"
	"github.com/wingnight/gameserver/minigame"
	"github.com/wingnight/gameserver/monitor"
	"github.com/wingnight/gameserver/network"
	"github.com/wingnight/gameserver/room"
	gameserverrpc "github.com/wingnight/gameserver/rpc"
	"github.com/wingnight/gameserver/session"
)

type GameServer struct {
	addr          string
	hostRoleToken string

	upgrader    websocket.Upgrader
	room        *room.Room
	sessions    *session.Manager
	broadcaster broadcast.Broadcaster
	mon         *monitor.Monitor
	rpcServer   *gameserverrpc.Server

	shutdownChan chan struct{}
}

func NewGameServer(cfg *config.Config, r *room.Room, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		addr:          cfg.Server.HTTPAddress,
		hostRoleToken: cfg.Host.RoleToken,
		room:          r,
		sessions:      session.NewManager(),
		mon:           mon,
		shutdownChan:  make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // displays connect from anywhere on the LAN
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(r, s.sessions)

	rpcServer, err := gameserverrpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	if err := netrpc.Register(gameserverrpc.NewRoomService(r)); err != nil {
		logger.Log.Fatalf("Failed to register RPC service: %v", err)
	}

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}

	// Role resolution happens exactly once per connection; an absent or
	// unknown token lands on the least-privileged display role.
	role := room.ResolveRole(r.URL.Query().Get("role_token"), s.hostRoleToken)
	s.handleConnection(conn, role)
}

func (s *GameServer) handleConnection(conn *websocket.Conn, role room.Role) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn, role)
	s.sessions.Add(sess)
	s.mon.ClientConnected(string(role))

	logger.Log.Infof("New %s connection from %s, session ID: %s", role, wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessions.Remove(sess.GetID())
		s.mon.ClientDisconnected(string(role))
		_ = wsConn.Close()
	}()

	// Every client gets the current snapshot immediately on connect.
	if err := s.broadcaster.SendSnapshot(sess); err != nil {
		return
	}

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeClaimHost:
		s.handleClaimHost(sess)
	default:
		s.handleMutatingCommand(sess, packet)
	}
}

// handleClaimHost issues a fresh bearer secret to a host-role session,
// invalidating any previously issued one (last issuer wins).
func (s *GameServer) handleClaimHost(sess *session.Session) {
	if sess.Role != room.RoleHost {
		s.mon.CommandRejected("role")
		return
	}
	secret := s.room.Authority().Issue()
	logger.Log.Infow("host control claimed", "session", sess.GetID())
	_ = sess.SendJSON(network.MsgTypeHostSecret, hostSecretEvent{Secret: secret})
}

// handleMutatingCommand validates the bearer secret, applies the command
// and broadcasts on acceptance. Authorization failures get an explicit
// signal so the caller knows to re-claim; domain rejections are silent.
func (s *GameServer) handleMutatingCommand(sess *session.Session, packet *network.Packet) {
	var base struct {
		Secret string `json:"secret"`
	}
	if len(packet.Data) > 0 {
		_ = json.Unmarshal(packet.Data, &base)
	}
	if !s.room.Authority().Validate(base.Secret) {
		s.mon.CommandRejected("auth")
		_ = sess.SendJSON(network.MsgTypeError, errorSignal{Code: "invalid_secret"})
		return
	}

	name, applied := s.applyCommand(packet)
	if !applied {
		s.mon.CommandRejected("domain")
		return
	}
	s.mon.MutationAccepted(name)

	start := time.Now()
	s.broadcaster.BroadcastSnapshot()
	s.mon.ObserveBroadcast(time.Since(start))
}

func (s *GameServer) applyCommand(packet *network.Packet) (string, bool) {
	switch packet.MsgID {
	case network.MsgTypeAdvancePhase:
		return "advance_phase", s.room.AdvancePhase()

	case network.MsgTypeSkipTurn:
		return "skip_turn", s.room.FinalizeActiveRoundTurn()

	case network.MsgTypeReorderTurns:
		var cmd reorderTurnsCommand
		if json.Unmarshal(packet.Data, &cmd) != nil {
			return "reorder_turns", false
		}
		return "reorder_turns", s.room.ReorderTurnOrder(cmd.TeamIDs)

	case network.MsgTypeResetGame:
		return "reset_game", s.room.Reset()

	case network.MsgTypeCreateTeam:
		var cmd createTeamCommand
		if json.Unmarshal(packet.Data, &cmd) != nil {
			return "create_team", false
		}
		return "create_team", s.room.CreateTeam(cmd.Name)

	case network.MsgTypeAssignPlayer:
		var cmd assignPlayerCommand
		if json.Unmarshal(packet.Data, &cmd) != nil {
			return "assign_player", false
		}
		teamID := ""
		if cmd.TeamID != nil {
			teamID = *cmd.TeamID
		}
		return "assign_player", s.room.AssignPlayer(cmd.PlayerID, teamID)

	case network.MsgTypeWingParticipation:
		var cmd wingParticipationCommand
		if json.Unmarshal(packet.Data, &cmd) != nil {
			return "wing_participation", false
		}
		return "wing_participation", s.room.SetWingParticipation(cmd.PlayerID, cmd.Ate)

	case network.MsgTypeAdjustScore:
		var cmd adjustScoreCommand
		if json.Unmarshal(packet.Data, &cmd) != nil {
			return "adjust_score", false
		}
		return "adjust_score", s.room.AdjustTeamScore(cmd.TeamID, cmd.Delta)

	case network.MsgTypeRedoScoring:
		return "redo_scoring", s.room.RedoScoringMutation()

	case network.MsgTypeMinigameAction:
		var cmd minigameActionCommand
		if json.Unmarshal(packet.Data, &cmd) != nil {
			return "minigame_action", false
		}
		return "minigame_action", s.room.DispatchMinigameAction(cmd.ActionEnvelope)

	case network.MsgTypePauseTimer:
		return "pause_timer", s.room.PauseTimer()

	case network.MsgTypeResumeTimer:
		return "resume_timer", s.room.ResumeTimer()

	case network.MsgTypeExtendTimer:
		var cmd extendTimerCommand
		if json.Unmarshal(packet.Data, &cmd) != nil {
			return "extend_timer", false
		}
		return "extend_timer", s.room.ExtendTimer(cmd.Seconds)

	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		return "unknown", false
	}
}

// Command payloads. Every mutating payload carries the bearer secret.

type hostSecretEvent struct {
	Secret string `json:"secret"`
}

type errorSignal struct {
	Code string `json:"code"`
}

type reorderTurnsCommand struct {
	Secret  string   `json:"secret"`
	TeamIDs []string `json:"teamIds"`
}

type createTeamCommand struct {
	Secret string `json:"secret"`
	Name   string `json:"name"`
}

type assignPlayerCommand struct {
	Secret   string  `json:"secret"`
	PlayerID string  `json:"playerId"`
	TeamID   *string `json:"teamId"` // null unassigns
}

type wingParticipationCommand struct {
	Secret   string `json:"secret"`
	PlayerID string `json:"playerId"`
	Ate      bool   `json:"ate"`
}

type adjustScoreCommand struct {
	Secret string `json:"secret"`
	TeamID string `json:"teamId"`
	Delta  int    `json:"delta"`
}

type minigameActionCommand struct {
	Secret string `json:"secret"`
	minigame.ActionEnvelope
}

type extendTimerCommand struct {
	Secret  string `json:"secret"`
	Seconds int    `json:"seconds"`
}
