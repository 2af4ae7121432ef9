// broadcast/broadcast.go
package broadcast

import (
	"errors"
	"sync"

	"github.com/wfunc/mafia/logger"
	"github.com/wfunc/mafia/network"
)

var (
	ErrNotConnected = errors.New("participant not connected")
)

// Messenger 游戏引擎可见的唯一消息出口：单播与房间广播。
// 两者都是尽力而为，失败只记日志，绝不影响游戏进程。
type Messenger interface {
	SendTo(participantID string, msgID uint16, data []byte) error
	Broadcast(roomID string, msgID uint16, data []byte) error
}

// Moderator 静音控制，纯装饰性，失败同样被忽略。
type Moderator interface {
	Mute(participantID string) error
	Unmute(participantID string) error
}

// ConnBroadcaster 基于连接注册表的广播器。服务器在参与者加入
// 房间时注册连接，断开时注销。
type ConnBroadcaster struct {
	mutex   sync.RWMutex
	conns   map[string]network.Connection // participant id -> conn
	members map[string]map[string]struct{} // room id -> participant ids
}

func NewConnBroadcaster() *ConnBroadcaster {
	return &ConnBroadcaster{
		conns:   make(map[string]network.Connection),
		members: make(map[string]map[string]struct{}),
	}
}

// Register binds a participant's connection and room membership.
func (b *ConnBroadcaster) Register(roomID, participantID string, conn network.Connection) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.conns[participantID] = conn
	if _, ok := b.members[roomID]; !ok {
		b.members[roomID] = make(map[string]struct{})
	}
	b.members[roomID][participantID] = struct{}{}
}

func (b *ConnBroadcaster) Unregister(roomID, participantID string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	delete(b.conns, participantID)
	if ids, ok := b.members[roomID]; ok {
		delete(ids, participantID)
		if len(ids) == 0 {
			delete(b.members, roomID)
		}
	}
}

func (b *ConnBroadcaster) SendTo(participantID string, msgID uint16, data []byte) error {
	b.mutex.RLock()
	conn, ok := b.conns[participantID]
	b.mutex.RUnlock()
	if !ok {
		return ErrNotConnected
	}
	return conn.Send(msgID, data)
}

func (b *ConnBroadcaster) Broadcast(roomID string, msgID uint16, data []byte) error {
	b.mutex.RLock()
	ids := make([]string, 0, len(b.members[roomID]))
	for id := range b.members[roomID] {
		ids = append(ids, id)
	}
	b.mutex.RUnlock()

	for _, id := range ids {
		if err := b.SendTo(id, msgID, data); err != nil {
			// 发送失败不中断，继续广播给其他人
			continue
		}
	}
	return nil
}

// NoopModerator 用于没有语音后端的部署。
type NoopModerator struct{}

func (NoopModerator) Mute(participantID string) error {
	logger.Log.Debugf("moderator: mute %s (noop)", participantID)
	return nil
}

func (NoopModerator) Unmute(participantID string) error {
	logger.Log.Debugf("moderator: unmute %s (noop)", participantID)
	return nil
}
