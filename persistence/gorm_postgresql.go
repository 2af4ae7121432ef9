// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/wfunc/mafia/models"
)

// GormPostgreSQL 基于 GORM 的实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建 GORM 数据库连接并迁移表结构
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := db.AutoMigrate(&models.GormGameRecord{}, &models.GormRoomState{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveGameRecord 保存对局记录
func (g *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	players := make(map[string]interface{}, len(record.Players))
	for _, p := range record.Players {
		players[p.ID] = map[string]interface{}{
			"name":    p.Name,
			"role":    string(p.Role),
			"alive":   p.Alive,
			"outcome": p.Outcome,
		}
	}

	rounds := 0
	if v, ok := record.Result["rounds"].(int); ok {
		rounds = v
	}
	duration := 0
	if v, ok := record.Result["duration_seconds"].(int); ok {
		duration = v
	}

	rec := models.GormGameRecord{
		RoomID:   record.RoomID,
		GameType: record.GameType,
		Players:  players,
		Result:   record.Result,
		Rounds:   rounds,
		Duration: duration,
	}
	return g.db.Create(&rec).Error
}

// LoadGameRecords 按房间加载最近的对局记录
func (g *GormPostgreSQL) LoadGameRecords(roomID string, limit int) ([]models.GameRecord, error) {
	var rows []models.GormGameRecord
	err := g.db.Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]models.GameRecord, 0, len(rows))
	for _, row := range rows {
		rec := models.GameRecord{
			RoomID:    row.RoomID,
			GameType:  row.GameType,
			Result:    row.Result,
			CreatedAt: row.CreatedAt,
		}
		// 存储形态是 id -> info 映射，读回时展开
		for id, raw := range row.Players {
			data, err := json.Marshal(raw)
			if err != nil {
				continue
			}
			var info models.ParticipantInfo
			if err := json.Unmarshal(data, &info); err != nil {
				continue
			}
			info.ID = id
			rec.Players = append(rec.Players, info)
		}
		records = append(records, rec)
	}
	return records, nil
}

// SaveRoomState 保存房间状态快照
func (g *GormPostgreSQL) SaveRoomState(roomID, gameType, phase string, players interface{}) error {
	data, err := json.Marshal(players)
	if err != nil {
		return err
	}
	var playersMap map[string]interface{}
	if err := json.Unmarshal(data, &playersMap); err != nil {
		return err
	}

	state := models.GormRoomState{
		RoomID:   roomID,
		GameType: gameType,
		Phase:    phase,
		Players:  playersMap,
	}

	return g.db.Where("room_id = ?", roomID).
		Assign(map[string]interface{}{"phase": phase, "players": state.Players}).
		FirstOrCreate(&state).Error
}

// DeleteRoomState 对局结束后清理房间快照
func (g *GormPostgreSQL) DeleteRoomState(roomID string) error {
	result := g.db.Where("room_id = ?", roomID).Delete(&models.GormRoomState{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Transaction 在事务中执行 fn
func (g *GormPostgreSQL) Transaction(fn func(tx *gorm.DB) error) error {
	return g.db.Transaction(fn)
}

// Close 关闭数据库连接
func (g *GormPostgreSQL) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
