// services/record_service.go
package services

import (
	"time"

	"github.com/wfunc/mafia/logger"
	"github.com/wfunc/mafia/models"
	"github.com/wfunc/mafia/persistence"
)

const gameType = "mafia"

// RecordService 在对局结束时归档结果。归档是旁路：失败只记日志。
type RecordService struct {
	db persistence.Database
}

func NewRecordService(db persistence.Database) *RecordService {
	return &RecordService{db: db}
}

// BuildRecord 汇总一局的最终状态
func (s *RecordService) BuildRecord(roomID string, participants []*models.Participant, winner models.Winner, rounds int) *models.GameRecord {
	players := make([]models.ParticipantInfo, 0, len(participants))
	for _, p := range participants {
		outcome := "lose"
		switch winner {
		case models.WinnerTown:
			if p.Role != models.RoleMafia {
				outcome = "win"
			}
		case models.WinnerMafia:
			if p.Role == models.RoleMafia {
				outcome = "win"
			}
		default:
			outcome = "aborted"
		}
		players = append(players, models.ParticipantInfo{
			ID:      p.ID,
			Name:    p.Name,
			Role:    p.Role,
			Alive:   p.Alive,
			Outcome: outcome,
		})
	}

	return &models.GameRecord{
		RoomID:   roomID,
		GameType: gameType,
		Players:  players,
		Result: map[string]any{
			"winner": string(winner),
			"rounds": rounds,
		},
		CreatedAt: time.Now(),
	}
}

// Archive 保存记录并清理房间快照
func (s *RecordService) Archive(record *models.GameRecord) {
	if s == nil || s.db == nil {
		return
	}
	if err := s.db.SaveGameRecord(record); err != nil {
		logger.Log.Warnf("Failed to archive game record for room %s: %v", record.RoomID, err)
	}
	if err := s.db.DeleteRoomState(record.RoomID); err != nil && err != persistence.ErrRecordNotFound {
		logger.Log.Warnf("Failed to delete room state for room %s: %v", record.RoomID, err)
	}
}

// Snapshot 周期性保存房间状态，供崩溃后的事后诊断
func (s *RecordService) Snapshot(roomID string, phase models.Phase, participants []*models.Participant) {
	if s == nil || s.db == nil {
		return
	}
	byID := make(map[string]interface{}, len(participants))
	for _, p := range participants {
		byID[p.ID] = map[string]interface{}{
			"name":  p.Name,
			"alive": p.Alive,
		}
	}
	if err := s.db.SaveRoomState(roomID, gameType, string(phase), byID); err != nil {
		logger.Log.Warnf("Failed to snapshot room %s: %v", roomID, err)
	}
}
