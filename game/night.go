// game/night.go
package game

import (
	"sort"

	"github.com/wfunc/mafia/models"
	"github.com/wfunc/mafia/session"
)

// PickMafiaTarget 对黑手党击杀选票做多数裁决。弃刀哨兵与真实目标
// 平等参与计票；并列最高时在并列集合中均匀随机选取。并列集合先
// 排序再抽签，固定种子下结果可复现。
func PickMafiaTarget(votes map[string]string, rng Rand) (string, bool) {
	if len(votes) == 0 {
		return "", false
	}

	counts := make(map[string]int)
	for _, target := range votes {
		counts[target]++
	}

	maxCount := 0
	for _, n := range counts {
		if n > maxCount {
			maxCount = n
		}
	}

	var tied []string
	for target, n := range counts {
		if n == maxCount {
			tied = append(tied, target)
		}
	}
	sort.Strings(tied)

	return tied[rng.Intn(len(tied))], true
}

// ResolveNight 结算一个夜晚回合：裁决黑手党目标、应用医生保护、
// 读取警察调查结果，并完成医生连续自救的记账。死亡直接落到会话
// 的参与者状态上。
func ResolveNight(sess *session.Session, rng Rand) models.NightOutcome {
	votes, doctorSave, policeTarget := sess.NightBallots()

	var outcome models.NightOutcome

	chosen, ok := PickMafiaTarget(votes, rng)
	if ok {
		if chosen == models.SkipTarget {
			outcome.Skipped = true
			sess.IncrementMafiaSkips()
		} else if doctorSave != "" && chosen == doctorSave {
			outcome.Saved = true
		} else {
			if sess.Kill(chosen) {
				outcome.VictimID = chosen
			}
		}
	}

	// 医生记账：本轮自救则下一轮不可再自救，否则恢复资格
	for _, doctor := range sess.Alive(models.RoleDoctor) {
		sess.SetDoctorSelfSave(doctor.ID, doctorSave != "" && doctorSave == doctor.ID)
	}

	// 警察结果不参与计票，是一次直接读取
	if policeTarget != "" {
		if target, exists := sess.Participant(policeTarget); exists {
			outcome.InvestateID = policeTarget
			outcome.IsMafia = target.Role == models.RoleMafia
		}
	}

	return outcome
}
