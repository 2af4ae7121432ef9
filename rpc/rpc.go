package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/mafia/game"
	"github.com/wfunc/mafia/logger"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered by the
// caller before Start.
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

// Start begins listening for RPC requests.
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

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// ControllerRegistry looks up the live controller for a room.
type ControllerRegistry interface {
	Controller(roomID string) (*game.Controller, bool)
}

// AdminService exposes the moderator commands over net/rpc: force
// start, force stop, force resolve and a session status probe. All
// methods follow the net/rpc signature rules.
type AdminService struct {
	registry ControllerRegistry
}

func NewAdminService(registry ControllerRegistry) *AdminService {
	return &AdminService{registry: registry}
}

type RoomArgs struct {
	RoomID string
}

type CommandReply struct {
	Message string
}

type StatusReply struct {
	Status game.Status
}

// ForceStart begins the game immediately, ending registration.
func (a *AdminService) ForceStart(args *RoomArgs, reply *CommandReply) error {
	c, ok := a.registry.Controller(args.RoomID)
	if !ok {
		return game.ErrUnknownRoom
	}
	if err := c.ForceStart(); err != nil {
		return err
	}
	reply.Message = "game started"
	logger.Log.Infof("Admin force-started room %s", args.RoomID)
	return nil
}

// ForceStop terminates the session from any state.
func (a *AdminService) ForceStop(args *RoomArgs, reply *CommandReply) error {
	c, ok := a.registry.Controller(args.RoomID)
	if !ok {
		return game.ErrUnknownRoom
	}
	c.ForceStop()
	reply.Message = "game stopped"
	logger.Log.Infof("Admin force-stopped room %s", args.RoomID)
	return nil
}

// ForceResolve ends the current phase with the ballots collected so far.
func (a *AdminService) ForceResolve(args *RoomArgs, reply *CommandReply) error {
	c, ok := a.registry.Controller(args.RoomID)
	if !ok {
		return game.ErrUnknownRoom
	}
	if err := c.ForceResolvePhase(); err != nil {
		return err
	}
	reply.Message = "phase resolved"
	logger.Log.Infof("Admin force-resolved phase in room %s", args.RoomID)
	return nil
}

// Status reports a snapshot of the session.
func (a *AdminService) Status(args *RoomArgs, reply *StatusReply) error {
	c, ok := a.registry.Controller(args.RoomID)
	if !ok {
		return game.ErrUnknownRoom
	}
	reply.Status = c.Status()
	return nil
}
