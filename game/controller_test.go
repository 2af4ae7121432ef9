package game

import (
	"sync"
	"testing"
	"time"

	"github.com/wfunc/mafia/broadcast"
	"github.com/wfunc/mafia/models"
	"github.com/wfunc/mafia/network"
	"github.com/wfunc/mafia/session"
	"github.com/wfunc/mafia/timer"
)

// sentMessage 测试替身记录的一条出站消息
type sentMessage struct {
	To    string // 单播目标，广播为空
	MsgID uint16
}

type fakeMessenger struct {
	mutex sync.Mutex
	sent  []sentMessage
}

func (f *fakeMessenger) SendTo(participantID string, msgID uint16, data []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.sent = append(f.sent, sentMessage{To: participantID, MsgID: msgID})
	return nil
}

func (f *fakeMessenger) Broadcast(roomID string, msgID uint16, data []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.sent = append(f.sent, sentMessage{MsgID: msgID})
	return nil
}

func (f *fakeMessenger) received(to string, msgID uint16) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for _, m := range f.sent {
		if m.To == to && m.MsgID == msgID {
			return true
		}
	}
	return false
}

func fastSettings() models.GameSettings {
	return models.GameSettings{
		NumMafia:       1,
		NumDoctor:      1,
		NumPolice:      1,
		VotingTime:     300 * time.Millisecond,
		DiscussionTime: 200 * time.Millisecond,
		NightGrace:     200 * time.Millisecond,
		MafiaSkipKills: 1,
		RevealMode:     models.RevealFull,
	}
}

// slowSettings 把所有定时都推远，阶段只靠显式指令推进。
func slowSettings() models.GameSettings {
	s := fastSettings()
	s.VotingTime = time.Minute
	s.DiscussionTime = time.Minute
	s.NightGrace = 30 * time.Second
	return s
}

type fixture struct {
	controller *Controller
	store      *session.Store
	timers     *timer.Manager
	messenger  *fakeMessenger
}

func newFixture(t *testing.T, settings models.GameSettings, players int) *fixture {
	t.Helper()
	f := &fixture{
		store:     session.NewStore(),
		timers:    timer.NewManager(),
		messenger: &fakeMessenger{},
	}
	t.Cleanup(f.timers.Stop)

	controller, err := NewController("room", "p1", settings, Deps{
		Store:     f.store,
		Timers:    f.timers,
		Messenger: f.messenger,
		Moderator: broadcast.NoopModerator{},
		Rand:      NewRand(99),
	})
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	f.controller = controller

	for i := 0; i < players; i++ {
		id := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"}[i]
		if err := controller.Join(id, id, true); err != nil {
			t.Fatalf("Join %s failed: %v", id, err)
		}
	}
	return f
}

func findByRole(c *Controller, role models.Role) *models.Participant {
	for _, p := range c.Session().Participants() {
		if p.Role == role {
			return p
		}
	}
	return nil
}

func findCitizen(c *Controller) *models.Participant {
	return findByRole(c, models.RoleCitizen)
}

func TestController_RegistrationRules(t *testing.T) {
	f := newFixture(t, slowSettings(), 3)
	c := f.controller

	if c.Phase() != models.PhaseRegistration {
		t.Fatalf("Expected registration phase, got %s", c.Phase())
	}
	if err := c.Join("p1", "p1", true); err != ErrDuplicateSubmission {
		t.Fatalf("Expected duplicate join to fail, got %v", err)
	}
	if err := c.ForceStart(); err != ErrNotEnoughPlayers {
		t.Fatalf("Expected ErrNotEnoughPlayers with 3 of 4, got %v", err)
	}

	if err := c.UpdateSettings(slowSettings()); err != nil {
		t.Fatalf("Settings update during registration should pass, got %v", err)
	}

	if err := c.Join("p4", "p4", true); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := c.ForceStart(); err != nil {
		t.Fatalf("ForceStart failed: %v", err)
	}

	if err := c.Join("late", "late", true); err != ErrWrongPhase {
		t.Fatalf("Join after start must fail with ErrWrongPhase, got %v", err)
	}
	if err := c.UpdateSettings(slowSettings()); err != ErrWrongPhase {
		t.Fatalf("Settings update after start must fail, got %v", err)
	}
	if err := c.ForceStart(); err != ErrWrongPhase {
		t.Fatalf("Second start must fail, got %v", err)
	}
}

func TestController_NightValidation(t *testing.T) {
	settings := slowSettings()
	settings.MafiaSkipKills = 0
	f := newFixture(t, settings, 5)
	c := f.controller

	if err := c.ForceStart(); err != nil {
		t.Fatalf("ForceStart failed: %v", err)
	}
	if c.Phase() != models.PhaseNight {
		t.Fatalf("Expected night phase, got %s", c.Phase())
	}

	mafia := findByRole(c, models.RoleMafia)
	doctor := findByRole(c, models.RoleDoctor)
	police := findByRole(c, models.RolePolice)
	citizen := findCitizen(c)

	if err := c.SubmitNightAction(citizen.ID, mafia.ID); err != ErrNotYourTurn {
		t.Errorf("Citizen night action must fail with ErrNotYourTurn, got %v", err)
	}
	if err := c.SubmitNightAction("ghost", mafia.ID); err != ErrUnknownActor {
		t.Errorf("Unknown actor must fail, got %v", err)
	}
	if err := c.SubmitNightAction(mafia.ID, mafia.ID); err != ErrInvalidTarget {
		t.Errorf("Mafia targeting mafia must fail, got %v", err)
	}
	if err := c.SubmitNightAction(mafia.ID, models.SkipTarget); err != ErrInvalidTarget {
		t.Errorf("Skip over budget must fail, got %v", err)
	}
	if err := c.SubmitNightAction(police.ID, police.ID); err != ErrInvalidTarget {
		t.Errorf("Police self-check must fail, got %v", err)
	}

	c.Session().SetDoctorSelfSave(doctor.ID, true)
	if err := c.SubmitNightAction(doctor.ID, doctor.ID); err != ErrInvalidTarget {
		t.Errorf("Self-save on cooldown must fail, got %v", err)
	}
	if err := c.SubmitNightAction(doctor.ID, citizen.ID); err != nil {
		t.Errorf("Valid doctor save failed: %v", err)
	}
	if err := c.SubmitNightAction(doctor.ID, citizen.ID); err != ErrDuplicateSubmission {
		t.Errorf("Second submission must fail with ErrDuplicateSubmission, got %v", err)
	}

	if err := c.SubmitVote(citizen.ID, mafia.ID); err != ErrWrongPhase {
		t.Errorf("Day vote at night must fail with ErrWrongPhase, got %v", err)
	}
	if err := c.RelayMafiaChat(citizen.ID, "hello"); err != ErrNotYourTurn {
		t.Errorf("Mafia chat from a citizen must fail, got %v", err)
	}
}

// 整局快进：夜晚被医生化解，白天讨论后全员投死黑手党，市民获胜。
func TestController_FullGame(t *testing.T) {
	f := newFixture(t, fastSettings(), 5)
	c := f.controller

	ended := make(chan struct{})
	c.OnEnd(func() { close(ended) })

	if err := c.ForceStart(); err != nil {
		t.Fatalf("ForceStart failed: %v", err)
	}

	mafia := findByRole(c, models.RoleMafia)
	doctor := findByRole(c, models.RoleDoctor)
	police := findByRole(c, models.RolePolice)
	citizen := findCitizen(c)

	if !f.messenger.received(mafia.ID, network.MsgTypeRoleAssign) {
		t.Error("Mafia should receive a role assignment")
	}

	if err := c.SubmitNightAction(mafia.ID, citizen.ID); err != nil {
		t.Fatalf("Mafia action failed: %v", err)
	}
	if err := c.SubmitNightAction(doctor.ID, citizen.ID); err != nil {
		t.Fatalf("Doctor action failed: %v", err)
	}
	if err := c.SubmitNightAction(police.ID, mafia.ID); err != nil {
		t.Fatalf("Police action failed: %v", err)
	}

	waitFor(t, 3*time.Second, func() bool { return c.Phase() == models.PhaseDay })

	if p, _ := c.Session().Participant(citizen.ID); !p.Alive {
		t.Fatal("Doctor's save should keep the victim alive")
	}
	if !f.messenger.received(police.ID, network.MsgTypeInvestigation) {
		t.Error("Police should receive the investigation result")
	}

	waitFor(t, 3*time.Second, func() bool { return c.Phase() == models.PhaseVoting })

	for _, p := range c.Session().Alive() {
		if err := c.SubmitVote(p.ID, mafia.ID); err != nil {
			t.Fatalf("Vote from %s failed: %v", p.ID, err)
		}
	}

	select {
	case <-ended:
	case <-time.After(3 * time.Second):
		t.Fatal("Game did not end after the vote")
	}

	if c.Phase() != models.PhaseEnded {
		t.Fatalf("Expected ended phase, got %s", c.Phase())
	}
	if p, _ := c.Session().Participant(mafia.ID); p.Alive {
		t.Error("Eliminated mafia should be dead")
	}
	if f.store.Count() != 0 {
		t.Error("Ended session should be removed from the store")
	}
}

// 空手结算整圈：夜晚无票不死人，白天跳过讨论，投票全员弃票，回到夜晚。
func TestController_ForceResolveCycle(t *testing.T) {
	f := newFixture(t, slowSettings(), 5)
	c := f.controller

	if err := c.ForceStart(); err != nil {
		t.Fatalf("ForceStart failed: %v", err)
	}
	if c.Round() != 1 {
		t.Fatalf("Expected round 1, got %d", c.Round())
	}

	if err := c.ForceResolvePhase(); err != nil {
		t.Fatalf("Force resolving the night failed: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return c.Phase() == models.PhaseDay })

	if got := c.Session().AliveCount(); got != 5 {
		t.Fatalf("Nobody should die in an empty night, alive=%d", got)
	}

	if err := c.ForceResolvePhase(); err != nil {
		t.Fatalf("Skipping the discussion failed: %v", err)
	}
	if c.Phase() != models.PhaseVoting {
		t.Fatalf("Expected voting phase, got %s", c.Phase())
	}

	if err := c.ForceResolvePhase(); err != nil {
		t.Fatalf("Force resolving the vote failed: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return c.Phase() == models.PhaseNight })

	if c.Round() != 2 {
		t.Fatalf("Expected round 2 after a full cycle, got %d", c.Round())
	}
	if got := c.Session().AliveCount(); got != 5 {
		t.Fatalf("An all-abstain vote must eliminate nobody, alive=%d", got)
	}
}

// 宽限期内强停：已满足法定数但尚未结算，死亡不得落地。
func TestController_ForceStopDuringGrace(t *testing.T) {
	settings := slowSettings()
	settings.NightGrace = 500 * time.Millisecond
	f := newFixture(t, settings, 5)
	c := f.controller

	if err := c.ForceStart(); err != nil {
		t.Fatalf("ForceStart failed: %v", err)
	}

	mafia := findByRole(c, models.RoleMafia)
	doctor := findByRole(c, models.RoleDoctor)
	police := findByRole(c, models.RolePolice)
	citizen := findCitizen(c)

	if err := c.SubmitNightAction(mafia.ID, citizen.ID); err != nil {
		t.Fatalf("Mafia action failed: %v", err)
	}
	if err := c.SubmitNightAction(doctor.ID, doctor.ID); err != nil {
		t.Fatalf("Doctor action failed: %v", err)
	}
	if err := c.SubmitNightAction(police.ID, citizen.ID); err != nil {
		t.Fatalf("Police action failed: %v", err)
	}

	c.ForceStop()

	if c.Phase() != models.PhaseEnded {
		t.Fatalf("Expected ended phase, got %s", c.Phase())
	}

	// 宽限定时器若醒来也必须被终止标志拦下
	time.Sleep(1200 * time.Millisecond)

	if p, _ := c.Session().Participant(citizen.ID); !p.Alive {
		t.Fatal("No death may land after a force stop")
	}
	if f.store.Count() != 0 {
		t.Error("Force-stopped session should be removed from the store")
	}
}

func TestController_StatusSnapshot(t *testing.T) {
	f := newFixture(t, slowSettings(), 5)
	c := f.controller

	if err := c.ForceStart(); err != nil {
		t.Fatalf("ForceStart failed: %v", err)
	}

	mafia := findByRole(c, models.RoleMafia)
	if err := c.SubmitNightAction(mafia.ID, findCitizen(c).ID); err != nil {
		t.Fatalf("Mafia action failed: %v", err)
	}

	status := c.Status()
	if status.Phase != models.PhaseNight {
		t.Errorf("Expected night phase in status, got %s", status.Phase)
	}
	if status.Received != 1 || status.Expected != 3 {
		t.Errorf("Expected 1/3 submissions, got %d/%d", status.Received, status.Expected)
	}
	if status.Alive != 5 || status.Total != 5 {
		t.Errorf("Expected 5/5 roster, got %d/%d", status.Alive, status.Total)
	}
}
