package game

import (
	"testing"

	"github.com/wfunc/mafia/models"
)

func participant(role models.Role, alive bool) *models.Participant {
	return &models.Participant{Role: role, Alive: alive}
}

func TestEvaluateWin_TownWinsWhenMafiaGone(t *testing.T) {
	parts := []*models.Participant{
		participant(models.RoleMafia, false),
		participant(models.RoleCitizen, true),
		participant(models.RoleDoctor, true),
	}
	if w := EvaluateWin(parts); w != models.WinnerTown {
		t.Fatalf("Expected town win, got %q", w)
	}
}

func TestEvaluateWin_MafiaWinsAtParity(t *testing.T) {
	parts := []*models.Participant{
		participant(models.RoleMafia, true),
		participant(models.RoleCitizen, true),
		participant(models.RoleCitizen, false),
	}
	if w := EvaluateWin(parts); w != models.WinnerMafia {
		t.Fatalf("Expected mafia win at 1v1, got %q", w)
	}
}

func TestEvaluateWin_GameContinues(t *testing.T) {
	parts := []*models.Participant{
		participant(models.RoleMafia, true),
		participant(models.RoleCitizen, true),
		participant(models.RolePolice, true),
	}
	if w := EvaluateWin(parts); w != models.WinnerNone {
		t.Fatalf("Expected no winner at 1v2, got %q", w)
	}
}

func TestEvaluateWin_MafiaMajority(t *testing.T) {
	parts := []*models.Participant{
		participant(models.RoleMafia, true),
		participant(models.RoleMafia, true),
		participant(models.RoleCitizen, true),
	}
	if w := EvaluateWin(parts); w != models.WinnerMafia {
		t.Fatalf("Expected mafia win at 2v1, got %q", w)
	}
}
