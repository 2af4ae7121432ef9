// game/events.go
package game

import (
	"github.com/wfunc/mafia/models"
)

// 推送给客户端的事件载荷，统一 JSON 编码。消息号见 network 包。

type roomStateEvent struct {
	Phase      models.Phase `json:"phase"`
	Players    []string     `json:"players"`
	MinPlayers int          `json:"min_players"`
}

type roleEvent struct {
	Role      models.Role `json:"role"`
	Teammates []string    `json:"teammates,omitempty"`
}

type phaseEvent struct {
	Phase     models.Phase `json:"phase"`
	Round     int          `json:"round"`
	Alive     int          `json:"alive"`
	Dead      int          `json:"dead,omitempty"`
	Remaining int          `json:"remaining,omitempty"` // 秒
}

// actionPrompt 夜晚行动提示，带可选目标清单
type actionPrompt struct {
	Role        models.Role    `json:"role"`
	Targets     []targetOption `json:"targets"`
	SkipAllowed bool           `json:"skip_allowed,omitempty"`
}

type targetOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type mafiaChatEvent struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type reminderEvent struct {
	Message string `json:"message"`
}

type countdownEvent struct {
	Remaining int  `json:"remaining"` // 秒
	Warning   bool `json:"warning"`
}

type investigationEvent struct {
	TargetID string `json:"target_id"`
	IsMafia  bool   `json:"is_mafia"`
}

// nightResultEvent 清晨播报。Reveal 已按公开模式折算，可能为空。
type nightResultEvent struct {
	Skipped    bool     `json:"skipped"`
	Saved      bool     `json:"saved"`
	VictimID   string   `json:"victim_id,omitempty"`
	VictimName string   `json:"victim_name,omitempty"`
	Reveal     string   `json:"reveal,omitempty"`
	Alive      []string `json:"alive"`
}

type voteResultEvent struct {
	Verdict        models.VoteVerdict `json:"verdict"`
	EliminatedID   string             `json:"eliminated_id,omitempty"`
	EliminatedName string             `json:"eliminated_name,omitempty"`
	Counts         map[string]int     `json:"counts"`
}

// revealEvent 延迟公开的出局者身份
type revealEvent struct {
	Name   string `json:"name"`
	Reveal string `json:"reveal"`
}

type finalRole struct {
	Name   string      `json:"name"`
	Role   models.Role `json:"role"`
	Status string      `json:"status"` // alive / dead
}

type gameEndEvent struct {
	Winner models.Winner `json:"winner"`
	Reason string        `json:"reason"`
	Rounds int           `json:"rounds"`
	Roles  []finalRole   `json:"roles"`
}
