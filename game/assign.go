// game/assign.go
package game

import (
	"github.com/wfunc/mafia/models"
)

// AssignRoles 对花名册做一次均匀洗牌，然后按 黑手党→医生→警察→市民
// 的顺序切分。特殊角色配额超出人数时多余的需求直接落空，剩余
// 参与者全部成为市民。每局只会调用一次。
func AssignRoles(roster []*models.Participant, settings models.GameSettings, rng Rand) {
	shuffled := make([]*models.Participant, len(roster))
	copy(shuffled, roster)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	idx := 0
	take := func(role models.Role, count int) {
		for i := 0; i < count && idx < len(shuffled); i++ {
			shuffled[idx].Role = role
			idx++
		}
	}

	take(models.RoleMafia, settings.NumMafia)
	take(models.RoleDoctor, settings.NumDoctor)
	take(models.RolePolice, settings.NumPolice)

	for ; idx < len(shuffled); idx++ {
		shuffled[idx].Role = models.RoleCitizen
	}

	for _, p := range shuffled {
		p.Alive = true
		p.DoctorSelfSaveUsed = false
	}
}

// MafiaTeammates 返回某个黑手党成员的同伙名单
func MafiaTeammates(roster []*models.Participant, selfID string) []*models.Participant {
	var out []*models.Participant
	for _, p := range roster {
		if p.Role == models.RoleMafia && p.ID != selfID {
			out = append(out, p)
		}
	}
	return out
}
