// game/vote.go
package game

import (
	"github.com/wfunc/mafia/models"
)

// TallyVotes 统计白天放逐投票。ballots 以投票者 id 为键，值为目标
// id 或 SkipTarget；没有出现在 ballots 里的存活者一律按弃票计。
//
// 裁决优先级：
//  1. 弃票数严格大于最高得票数 -> 弃票通过，无人出局
//  2. 唯一最高票且严格大于弃票数 -> 该目标出局
//  3. 其余情况（多人并列最高，或最高票不大于弃票数）-> 平局，无人出局
//
// 注意弃票数与最高票数相等时永远落入第 3 条：弃票通过要求严格大于。
func TallyVotes(ballots map[string]string, alive []*models.Participant) models.VoteOutcome {
	counts := make(map[string]int)
	for _, p := range alive {
		target, ok := ballots[p.ID]
		if !ok || target == "" {
			target = models.SkipTarget
		}
		counts[target]++
	}

	skipCount := counts[models.SkipTarget]
	maxNonSkip := 0
	for target, n := range counts {
		if target == models.SkipTarget {
			continue
		}
		if n > maxNonSkip {
			maxNonSkip = n
		}
	}

	var tied []string
	for target, n := range counts {
		if target != models.SkipTarget && n == maxNonSkip && maxNonSkip > 0 {
			tied = append(tied, target)
		}
	}

	outcome := models.VoteOutcome{Counts: counts}

	switch {
	case maxNonSkip == 0:
		// 全员弃票
		outcome.Verdict = models.VerdictSkipped
	case skipCount > maxNonSkip:
		outcome.Verdict = models.VerdictSkipped
	case len(tied) == 1 && maxNonSkip > skipCount:
		outcome.Verdict = models.VerdictEliminated
		outcome.EliminatedID = tied[0]
		for _, p := range alive {
			if p.ID == tied[0] {
				outcome.EliminatedRole = p.Role
				break
			}
		}
	default:
		outcome.Verdict = models.VerdictTie
	}

	return outcome
}
