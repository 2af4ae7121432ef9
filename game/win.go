// game/win.go
package game

import (
	"github.com/wfunc/mafia/models"
)

// EvaluateWin 重新统计阵营人数并判定终局。只在一次死亡或放逐
// 落定之后调用。
//
// 市民阵营获胜当且仅当黑手党全灭；黑手党获胜当且仅当其存活人数
// 不少于其余存活者。其余情况对局继续。
func EvaluateWin(participants []*models.Participant) models.Winner {
	aliveMafia := 0
	aliveOthers := 0
	for _, p := range participants {
		if !p.Alive {
			continue
		}
		if p.Role == models.RoleMafia {
			aliveMafia++
		} else {
			aliveOthers++
		}
	}

	if aliveMafia == 0 {
		return models.WinnerTown
	}
	if aliveMafia >= aliveOthers {
		return models.WinnerMafia
	}
	return models.WinnerNone
}
