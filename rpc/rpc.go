// Package rpc exposes a small net/rpc ops surface: the current host-view
// snapshot and room stats, reachable without a websocket.
package rpc

import (
	"net"
	"net/rpc"

	"github.com/wingnight/gameserver/logger"
	"github.com/wingnight/gameserver/room"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins serving RPC connections. Blocks until the listener closes.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		_ = s.listener.Close()
	}
}

// RoomService exposes read access to the single room.
type RoomService struct {
	room *room.Room
}

func NewRoomService(r *room.Room) *RoomService {
	return &RoomService{room: r}
}

type SnapshotArgs struct{}

type SnapshotReply struct {
	Snapshot *room.Snapshot
}

// Snapshot returns the host-view projection, answers included; the rpc
// surface is an operator tool, never exposed to displays.
func (rs *RoomService) Snapshot(_ *SnapshotArgs, reply *SnapshotReply) error {
	reply.Snapshot = rs.room.Project(room.RoleHost)
	return nil
}

type StatsArgs struct{}

type StatsReply struct {
	Stats room.Stats
}

func (rs *RoomService) Stats(_ *StatsArgs, reply *StatsReply) error {
	reply.Stats = rs.room.Stats()
	return nil
}
