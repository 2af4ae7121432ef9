package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/rpc"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/mafia/broadcast"
	"github.com/wfunc/mafia/config"
	"github.com/wfunc/mafia/game"
	"github.com/wfunc/mafia/logger"
	"github.com/wfunc/mafia/models"
	"github.com/wfunc/mafia/monitor"
	"github.com/wfunc/mafia/network"
	"github.com/wfunc/mafia/persistence"
	mafia_rpc "github.com/wfunc/mafia/rpc"
	"github.com/wfunc/mafia/services"
	"github.com/wfunc/mafia/session"
	"github.com/wfunc/mafia/timer"
)

const heartbeatInterval = 30 * time.Second

// client 一条连接对应的玩家状态
type client struct {
	ID         string
	Name       string
	RoomID     string
	conn       network.Connection
	lastActive time.Time
}

type GameServer struct {
	addr     string
	upgrader websocket.Upgrader

	store       *session.Store
	timers      *timer.Manager
	broadcaster *broadcast.ConnBroadcaster
	moderator   broadcast.Moderator
	records     *services.RecordService
	metrics     *monitor.Monitor
	rng         game.Rand
	defaults    config.GameConfig

	rpcServer *mafia_rpc.Server

	mutex       sync.Mutex
	controllers map[string]*game.Controller
	shutdownChan chan struct{}
}

func NewGameServer(cfg *config.Config, db persistence.Database, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		addr:         cfg.Server.HTTPAddress,
		store:        session.NewStore(),
		timers:       timer.NewManager(),
		broadcaster:  broadcast.NewConnBroadcaster(),
		moderator:    broadcast.NoopModerator{},
		records:      services.NewRecordService(db),
		metrics:      mon,
		rng:          game.NewTimeRand(),
		defaults:     cfg.Game,
		controllers:  make(map[string]*game.Controller),
		shutdownChan: make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化RPC服务器
	rpcServer, err := mafia_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册管理服务
	adminService := mafia_rpc.NewAdminService(s)
	rpc.Register(adminService)

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
	s.timers.Stop()
}

// Controller implements rpc.ControllerRegistry.
func (s *GameServer) Controller(roomID string) (*game.Controller, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	c, ok := s.controllers[roomID]
	return c, ok
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)

	cl := &client{
		ID:         uuid.New().String(),
		conn:       wsConn,
		lastActive: time.Now(),
	}

	logger.Log.Infof("New connection from %s, client ID: %s", wsConn.RemoteAddr(), cl.ID)

	defer func() {
		logger.Log.Infof("Connection closed from %s, client ID: %s", wsConn.RemoteAddr(), cl.ID)
		s.dropClient(cl)
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			cl.lastActive = time.Now()
			s.handlePacket(cl, packet)
		}
	}
}

// dropClient 连接断开后的清理。注册阶段直接退出房间；开局后只注销
// 连接，参与者留在局内，后续照常可被淘汰。
func (s *GameServer) dropClient(cl *client) {
	if cl.RoomID == "" {
		return
	}
	if c, ok := s.Controller(cl.RoomID); ok {
		if c.Phase() == models.PhaseRegistration {
			c.Leave(cl.ID)
		}
	}
	s.broadcaster.Unregister(cl.RoomID, cl.ID)
}

func (s *GameServer) handlePacket(cl *client, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		cl.conn.Send(network.MsgTypeHeartbeat, nil)
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(cl, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(cl, packet)
	case network.MsgTypeLeaveRoom:
		s.handleLeaveRoom(cl)
	case network.MsgTypeStartGame:
		s.handleStartGame(cl, packet)
	case network.MsgTypeNightAction:
		s.handleNightAction(cl, packet)
	case network.MsgTypeDayVote:
		s.handleDayVote(cl, packet)
	case network.MsgTypeMafiaChat:
		s.handleMafiaChat(cl, packet)
	case network.MsgTypeSkipPhase:
		s.handleSkipPhase(cl)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *GameServer) sendError(cl *client, err error) {
	cl.conn.SendJSON(network.MsgTypeError, map[string]string{"error": err.Error()})
}

func (s *GameServer) handleCreateRoom(cl *client, packet *network.Packet) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(cl, err)
		return
	}
	if req.Name == "" {
		req.Name = "Host"
	}

	roomID := uuid.New().String()
	controller, err := game.NewController(roomID, cl.ID, s.defaults.Settings(), game.Deps{
		Store:     s.store,
		Timers:    s.timers,
		Messenger: s.broadcaster,
		Moderator: s.moderator,
		Rand:      s.rng,
		Metrics:   s.metrics,
		Records:   s.records,
	})
	if err != nil {
		s.sendError(cl, err)
		return
	}

	s.mutex.Lock()
	s.controllers[roomID] = controller
	s.mutex.Unlock()

	controller.OnEnd(func() {
		s.mutex.Lock()
		delete(s.controllers, roomID)
		s.mutex.Unlock()
	})

	cl.Name = req.Name
	cl.RoomID = roomID
	s.broadcaster.Register(roomID, cl.ID, cl.conn)
	if err := controller.Join(cl.ID, cl.Name, true); err != nil {
		s.sendError(cl, err)
		return
	}

	logger.Log.Infof("Client %s created room %s", cl.ID, roomID)
	cl.conn.SendJSON(network.MsgTypeCreateRoom, map[string]string{"room_id": roomID})
}

func (s *GameServer) handleJoinRoom(cl *client, packet *network.Packet) {
	var req struct {
		RoomID string `json:"room_id"`
		Name   string `json:"name"`
	}
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(cl, err)
		return
	}

	controller, ok := s.Controller(req.RoomID)
	if !ok {
		s.sendError(cl, game.ErrUnknownRoom)
		return
	}

	if req.Name == "" {
		req.Name = "Player-" + cl.ID[:8]
	}
	cl.Name = req.Name
	cl.RoomID = req.RoomID
	s.broadcaster.Register(req.RoomID, cl.ID, cl.conn)

	if err := controller.Join(cl.ID, cl.Name, true); err != nil {
		s.broadcaster.Unregister(req.RoomID, cl.ID)
		cl.RoomID = ""
		s.sendError(cl, err)
		return
	}
	logger.Log.Infof("Client %s joined room %s", cl.ID, req.RoomID)
}

func (s *GameServer) handleLeaveRoom(cl *client) {
	if cl.RoomID == "" {
		return
	}
	if controller, ok := s.Controller(cl.RoomID); ok {
		if err := controller.Leave(cl.ID); err != nil {
			s.sendError(cl, err)
			return
		}
	}
	s.broadcaster.Unregister(cl.RoomID, cl.ID)
	cl.RoomID = ""
}

// handleStartGame 只有房主能开局；Bots 字段补充模拟玩家凑人数。
func (s *GameServer) handleStartGame(cl *client, packet *network.Packet) {
	var req struct {
		Bots int `json:"bots"`
	}
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendError(cl, err)
			return
		}
	}

	controller, ok := s.Controller(cl.RoomID)
	if !ok {
		s.sendError(cl, game.ErrUnknownRoom)
		return
	}
	if controller.Session().HostID != cl.ID {
		s.sendError(cl, game.ErrNotYourTurn)
		return
	}

	for i := 0; i < req.Bots; i++ {
		botID := uuid.New().String()
		name := fmt.Sprintf("Bot-%d", i+1)
		if err := controller.Join(botID, name, false); err != nil {
			s.sendError(cl, err)
			return
		}
	}

	if err := controller.ForceStart(); err != nil {
		s.sendError(cl, err)
	}
}

func (s *GameServer) handleNightAction(cl *client, packet *network.Packet) {
	var req struct {
		Target string `json:"target"`
	}
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(cl, err)
		return
	}
	controller, ok := s.Controller(cl.RoomID)
	if !ok {
		s.sendError(cl, game.ErrUnknownRoom)
		return
	}
	if err := controller.SubmitNightAction(cl.ID, req.Target); err != nil {
		s.sendError(cl, err)
	}
}

func (s *GameServer) handleDayVote(cl *client, packet *network.Packet) {
	var req struct {
		Target string `json:"target"`
	}
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(cl, err)
		return
	}
	controller, ok := s.Controller(cl.RoomID)
	if !ok {
		s.sendError(cl, game.ErrUnknownRoom)
		return
	}
	if err := controller.SubmitVote(cl.ID, req.Target); err != nil {
		s.sendError(cl, err)
	}
}

func (s *GameServer) handleMafiaChat(cl *client, packet *network.Packet) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(cl, err)
		return
	}
	controller, ok := s.Controller(cl.RoomID)
	if !ok {
		s.sendError(cl, game.ErrUnknownRoom)
		return
	}
	if err := controller.RelayMafiaChat(cl.ID, req.Text); err != nil {
		s.sendError(cl, err)
	}
}

// handleSkipPhase 房主跳过当前阶段，夜晚和投票按已收选票结算。
func (s *GameServer) handleSkipPhase(cl *client) {
	controller, ok := s.Controller(cl.RoomID)
	if !ok {
		s.sendError(cl, game.ErrUnknownRoom)
		return
	}
	if controller.Session().HostID != cl.ID {
		s.sendError(cl, game.ErrNotYourTurn)
		return
	}
	if err := controller.ForceResolvePhase(); err != nil {
		s.sendError(cl, err)
	}
}
