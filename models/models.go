// models/models.go
package models

import (
	"time"
)

// Role 参与者角色
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleMafia   Role = "mafia"
	RoleDoctor  Role = "doctor"
	RolePolice  Role = "police"
)

// Phase 游戏阶段
type Phase string

const (
	PhaseWaiting      Phase = "waiting"
	PhaseRegistration Phase = "registration"
	PhaseNight        Phase = "night"
	PhaseDay          Phase = "day"
	PhaseVoting       Phase = "voting"
	PhaseEnded        Phase = "ended"
)

// SkipTarget is the reserved ballot value for "no kill" at night and
// "abstain" during the day vote. Participant IDs are UUIDs, so the
// sentinel can never collide with a real target.
const SkipTarget = "skip"

// Reveal modes for eliminated participants.
const (
	RevealNone    = 1 // 不公开身份
	RevealFaction = 2 // 只公开是否黑手党
	RevealFull    = 3 // 完整公开身份(带悬念)
)

// Participant 参与者
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Alive bool   `json:"alive"`
	Human bool   `json:"human"`

	// DoctorSelfSaveUsed tracks whether the doctor spent last night's
	// save on themselves; self-save is then off the table for one round.
	DoctorSelfSaveUsed bool `json:"doctor_self_save_used"`
}

// GameSettings 游戏规则配置，注册阶段后不再可变
type GameSettings struct {
	NumMafia         int           `json:"num_mafia"`
	NumDoctor        int           `json:"num_doctor"`
	NumPolice        int           `json:"num_police"`
	VotingTime       time.Duration `json:"voting_time"`
	DiscussionTime   time.Duration `json:"discussion_time"`
	RegistrationTime time.Duration `json:"registration_time"`
	NightGrace       time.Duration `json:"night_grace"`
	ReminderInterval time.Duration `json:"reminder_interval"`
	MafiaSkipKills   int           `json:"mafia_skip_kills"`
	RevealMode       int           `json:"reveal_mode"`
}

// MinPlayers 开局所需最少人数
func (s GameSettings) MinPlayers() int {
	return s.NumMafia + s.NumDoctor + s.NumPolice + 1
}

// NightOutcome 夜晚结算结果
type NightOutcome struct {
	Skipped     bool   `json:"skipped"`      // 黑手党放弃击杀
	Saved       bool   `json:"saved"`        // 医生救下目标
	VictimID    string `json:"victim_id"`    // 死亡者，为空表示无人死亡
	InvestateID string `json:"investate_id"` // 警察调查目标
	IsMafia     bool   `json:"is_mafia"`     // 调查结果
}

// VoteVerdict 投票结算的判定类别
type VoteVerdict string

const (
	VerdictEliminated VoteVerdict = "eliminated"
	VerdictSkipped    VoteVerdict = "skipped"
	VerdictTie        VoteVerdict = "tie"
)

// VoteOutcome 投票结算结果，EliminatedRole 永远携带真实身份，
// 由展示层按 RevealMode 决定公开多少
type VoteOutcome struct {
	Verdict        VoteVerdict    `json:"verdict"`
	EliminatedID   string         `json:"eliminated_id"`
	EliminatedRole Role           `json:"eliminated_role"`
	Counts         map[string]int `json:"counts"` // target id / SkipTarget -> 票数
}

// Winner 胜利阵营
type Winner string

const (
	WinnerNone  Winner = ""
	WinnerTown  Winner = "town"
	WinnerMafia Winner = "mafia"
)

// GameRecord 对局存档
type GameRecord struct {
	RoomID    string            `json:"room_id"`
	GameType  string            `json:"game_type"`
	Players   []ParticipantInfo `json:"players"`
	Result    map[string]any    `json:"result"`
	CreatedAt time.Time         `json:"created_at"`
}

// ParticipantInfo 存档中的参与者信息
type ParticipantInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
	Alive   bool   `json:"alive"`
	Outcome string `json:"outcome"` // win/lose
}
