// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormGameRecord 对局记录模型
type GormGameRecord struct {
	gorm.Model
	RoomID   string                 `gorm:"index;not null"`
	GameType string                 `gorm:"not null"`
	Players  map[string]interface{} `gorm:"type:jsonb;serializer:json;not null"`
	Result   map[string]interface{} `gorm:"type:jsonb;serializer:json;not null"`
	Rounds   int                    `gorm:"default:0"`
	Duration int                    `gorm:"default:0"` // 对局时长(秒)
}

// GormRoomState 房间状态快照
type GormRoomState struct {
	gorm.Model
	RoomID   string                 `gorm:"uniqueIndex;not null"`
	GameType string                 `gorm:"not null"`
	Phase    string                 `gorm:"not null"`
	Players  map[string]interface{} `gorm:"type:jsonb;serializer:json"`
	Settings map[string]interface{} `gorm:"type:jsonb;serializer:json"`
}
