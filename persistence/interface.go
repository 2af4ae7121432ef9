// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/mafia/models"
)

// Database 对局存档接口。存档完全是尽力而为的旁路：
// 任何失败都只记日志，绝不回流到游戏逻辑。
type Database interface {
	SaveGameRecord(record *models.GameRecord) error
	LoadGameRecords(roomID string, limit int) ([]models.GameRecord, error)
	SaveRoomState(roomID, gameType, phase string, players interface{}) error
	DeleteRoomState(roomID string) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
