package game

import (
	"testing"

	"github.com/wfunc/mafia/models"
)

func makeAlive(ids ...string) []*models.Participant {
	out := make([]*models.Participant, 0, len(ids))
	for _, id := range ids {
		out = append(out, &models.Participant{
			ID:    id,
			Name:  id,
			Role:  models.RoleCitizen,
			Alive: true,
			Human: true,
		})
	}
	return out
}

func TestTallyVotes_Majority(t *testing.T) {
	alive := makeAlive("a", "b", "c", "d", "e")
	alive[1].Role = models.RoleMafia

	ballots := map[string]string{
		"a": "b",
		"c": "b",
		"d": "b",
		"e": "c",
		"b": models.SkipTarget,
	}

	outcome := TallyVotes(ballots, alive)
	if outcome.Verdict != models.VerdictEliminated {
		t.Fatalf("Expected eliminated verdict, got %s", outcome.Verdict)
	}
	if outcome.EliminatedID != "b" {
		t.Errorf("Expected b to be eliminated, got %s", outcome.EliminatedID)
	}
	if outcome.EliminatedRole != models.RoleMafia {
		t.Errorf("Expected the true role to be carried, got %s", outcome.EliminatedRole)
	}
	if outcome.Counts["b"] != 3 {
		t.Errorf("Expected 3 votes for b, got %d", outcome.Counts["b"])
	}
}

func TestTallyVotes_AllAbstain(t *testing.T) {
	alive := makeAlive("a", "b", "c")

	outcome := TallyVotes(map[string]string{}, alive)
	if outcome.Verdict != models.VerdictSkipped {
		t.Fatalf("Expected skipped verdict, got %s", outcome.Verdict)
	}
	if outcome.Counts[models.SkipTarget] != 3 {
		t.Errorf("Expected 3 abstentions, got %d", outcome.Counts[models.SkipTarget])
	}
}

func TestTallyVotes_SkipMajority(t *testing.T) {
	alive := makeAlive("a", "b", "c", "d", "e")
	ballots := map[string]string{
		"a": models.SkipTarget,
		"b": models.SkipTarget,
		"c": models.SkipTarget,
		"d": "e",
		"e": "d",
	}

	outcome := TallyVotes(ballots, alive)
	if outcome.Verdict != models.VerdictSkipped {
		t.Fatalf("Expected skipped verdict, got %s", outcome.Verdict)
	}
}

// 弃票数与最高票数持平时要求严格大于，结果必须是平局而不是弃票通过。
func TestTallyVotes_SkipEqualsTopIsTie(t *testing.T) {
	alive := makeAlive("a", "b", "c", "d", "e", "f")
	ballots := map[string]string{
		"a": models.SkipTarget,
		"b": models.SkipTarget,
		"c": models.SkipTarget,
		"d": "f",
		"e": "f",
		"f": "f",
	}

	outcome := TallyVotes(ballots, alive)
	if outcome.Verdict != models.VerdictTie {
		t.Fatalf("Expected tie verdict at the 3-3 boundary, got %s", outcome.Verdict)
	}
	if outcome.EliminatedID != "" {
		t.Errorf("Nobody should be eliminated on a tie, got %s", outcome.EliminatedID)
	}
}

func TestTallyVotes_SplitTie(t *testing.T) {
	alive := makeAlive("a", "b", "c", "d", "e")
	ballots := map[string]string{
		"a": "b",
		"c": "b",
		"b": "a",
		"d": "a",
		"e": models.SkipTarget,
	}

	outcome := TallyVotes(ballots, alive)
	if outcome.Verdict != models.VerdictTie {
		t.Fatalf("Expected tie verdict for 2-2-1, got %s", outcome.Verdict)
	}
}

// 没有投票的存活者按弃票计入。
func TestTallyVotes_AbsentCountAsAbstain(t *testing.T) {
	alive := makeAlive("a", "b", "c", "d")
	ballots := map[string]string{
		"a": "b",
	}

	outcome := TallyVotes(ballots, alive)
	if outcome.Verdict != models.VerdictSkipped {
		t.Fatalf("Expected skipped verdict, got %s", outcome.Verdict)
	}
	if outcome.Counts[models.SkipTarget] != 3 {
		t.Errorf("Expected 3 implicit abstentions, got %d", outcome.Counts[models.SkipTarget])
	}
}

// 死亡者不在 alive 名单里，他们的历史选票不参与计票。
func TestTallyVotes_DeadVotersIgnored(t *testing.T) {
	alive := makeAlive("a", "b", "c")
	ballots := map[string]string{
		"a":    "b",
		"c":    "b",
		"dead": "a",
	}

	outcome := TallyVotes(ballots, alive)
	if outcome.Verdict != models.VerdictEliminated {
		t.Fatalf("Expected eliminated verdict, got %s", outcome.Verdict)
	}
	if outcome.EliminatedID != "b" {
		t.Errorf("Expected b eliminated, got %s", outcome.EliminatedID)
	}
	if _, ok := outcome.Counts["a"]; ok {
		t.Error("Dead voter's ballot should not be counted")
	}
}
