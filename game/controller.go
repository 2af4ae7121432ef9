// game/controller.go
package game

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/wfunc/mafia/broadcast"
	"github.com/wfunc/mafia/logger"
	"github.com/wfunc/mafia/models"
	"github.com/wfunc/mafia/monitor"
	"github.com/wfunc/mafia/network"
	"github.com/wfunc/mafia/services"
	"github.com/wfunc/mafia/session"
	"github.com/wfunc/mafia/timer"
)

const voteStatusInterval = 10 * time.Second

// Deps 控制器的外部协作者。Metrics 与 Records 允许为 nil。
type Deps struct {
	Store     *session.Store
	Timers    *timer.Manager
	Messenger broadcast.Messenger
	Moderator broadcast.Moderator
	Rand      Rand
	Metrics   *monitor.Monitor
	Records   *services.RecordService
}

// Controller 驱动单个房间的阶段状态机：
//
//	WAITING -> REGISTRATION -> NIGHT -> DAY -> VOTING -> NIGHT -> ... -> ENDED
//
// 所有阶段转换都在控制器互斥锁内串行执行；定时器回调先重查终止
// 标志再动手，管理员强停因此在任何时刻都是安全的。
type Controller struct {
	sess *session.Session
	deps Deps

	mutex         sync.Mutex
	window        *ActionWindow
	rolesAssigned bool
	phaseStart    time.Time
	startedAt     time.Time
	onEnd         func()
}

// NewController creates the session, registers it in the store and
// opens registration.
func NewController(roomID, hostID string, settings models.GameSettings, deps Deps) (*Controller, error) {
	sess := session.NewSession(roomID, hostID, settings)
	if !deps.Store.Create(sess) {
		return nil, ErrGameInProgress
	}

	c := &Controller{
		sess:       sess,
		deps:       deps,
		phaseStart: time.Now(),
	}

	sess.SetPhase(models.PhaseRegistration)
	if deps.Metrics != nil {
		deps.Metrics.IncActiveSessions()
	}
	logger.Log.Infof("Room %s: registration opened by host %s", roomID, hostID)
	return c, nil
}

// OnEnd registers a cleanup hook invoked once after the session ends.
func (c *Controller) OnEnd(f func()) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.onEnd = f
}

func (c *Controller) Session() *session.Session { return c.sess }

func (c *Controller) Phase() models.Phase { return c.sess.Phase() }

func (c *Controller) Round() int { return c.sess.Round() }

// Roster returns value copies of every participant.
func (c *Controller) Roster() []models.Participant {
	parts := c.sess.Participants()
	out := make([]models.Participant, 0, len(parts))
	for _, p := range parts {
		out = append(out, *p)
	}
	return out
}

// Pending reports received vs expected submissions this round.
func (c *Controller) Pending() (received, expected int) {
	return c.sess.Pending()
}

// Status 供管理接口查询的会话快照
type Status struct {
	RoomID         string       `json:"room_id"`
	Phase          models.Phase `json:"phase"`
	Round          int          `json:"round"`
	Alive          int          `json:"alive"`
	Total          int          `json:"total"`
	Received       int          `json:"received"`
	Expected       int          `json:"expected"`
	MafiaSkipsUsed int          `json:"mafia_skips_used"`
}

func (c *Controller) Status() Status {
	received, expected := c.sess.Pending()
	return Status{
		RoomID:         c.sess.ID,
		Phase:          c.sess.Phase(),
		Round:          c.sess.Round(),
		Alive:          c.sess.AliveCount(),
		Total:          c.sess.ParticipantCount(),
		Received:       received,
		Expected:       expected,
		MafiaSkipsUsed: c.sess.MafiaSkipsUsed(),
	}
}

// --- 注册阶段 ---

// Join adds a participant during registration.
func (c *Controller) Join(id, name string, human bool) error {
	if c.sess.Phase() != models.PhaseRegistration {
		return ErrWrongPhase
	}
	p := &models.Participant{
		ID:    id,
		Name:  name,
		Role:  models.RoleCitizen,
		Alive: true,
		Human: human,
	}
	if !c.sess.AddParticipant(p) {
		return ErrDuplicateSubmission
	}
	c.broadcastRoomState()
	return nil
}

func (c *Controller) Leave(id string) error {
	if c.sess.Phase() != models.PhaseRegistration {
		return ErrWrongPhase
	}
	c.sess.RemoveParticipant(id)
	c.broadcastRoomState()
	return nil
}

// UpdateSettings replaces the rule set, allowed only before the game
// starts collecting actions.
func (c *Controller) UpdateSettings(settings models.GameSettings) error {
	if c.sess.Phase() != models.PhaseRegistration {
		return ErrWrongPhase
	}
	c.sess.UpdateSettings(settings)
	return nil
}

// ForceStart assigns roles and begins the first night.
func (c *Controller) ForceStart() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.sess.Phase() != models.PhaseRegistration {
		return ErrWrongPhase
	}
	settings := c.sess.Settings()
	if c.sess.ParticipantCount() < settings.MinPlayers() {
		return ErrNotEnoughPlayers
	}
	if c.rolesAssigned {
		return ErrGameInProgress
	}

	c.assignRolesAndNotify()
	c.startedAt = time.Now()
	c.startNight()
	return nil
}

func (c *Controller) assignRolesAndNotify() {
	roster := c.sess.Participants()
	AssignRoles(roster, c.sess.Settings(), c.deps.Rand)
	c.rolesAssigned = true

	for _, p := range roster {
		event := roleEvent{Role: p.Role}
		if p.Role == models.RoleMafia {
			for _, mate := range MafiaTeammates(roster, p.ID) {
				event.Teammates = append(event.Teammates, mate.Name)
			}
		}
		// 通知失败不影响分配：收不到私信的玩家照常参与
		c.sendTo(p.ID, network.MsgTypeRoleAssign, event)
	}
	logger.Log.Infof("Room %s: roles assigned to %d participants", c.sess.ID, len(roster))
}

// --- 夜晚阶段 ---

// startNight runs under c.mutex.
func (c *Controller) startNight() {
	if c.sess.Ended() {
		return
	}
	c.transition(models.PhaseNight)
	round := c.sess.IncrementRound()

	settings := c.sess.Settings()
	expected := 0
	specials := c.sess.Alive(models.RoleMafia, models.RoleDoctor, models.RolePolice)
	for _, p := range specials {
		if p.Human {
			expected++
		}
	}
	c.sess.ResetNightRound(expected)

	// 夜晚全员静音，纯装饰
	for _, p := range c.sess.Alive() {
		c.moderate(p.ID, true)
	}

	c.broadcast(network.MsgTypePhaseChange, phaseEvent{
		Phase: models.PhaseNight,
		Round: round,
		Alive: c.sess.AliveCount(),
		Dead:  c.sess.ParticipantCount() - c.sess.AliveCount(),
	})

	c.window = OpenWindow(c.sess, c.deps.Timers, WindowConfig{
		EarlyExit:        true,
		Grace:            settings.NightGrace,
		ReminderInterval: settings.ReminderInterval,
	}, WindowCallbacks{
		Resolve: c.nightResolved,
		Remind:  c.remindNightActors,
	})

	c.promptNightActors(specials)
	c.autoSubmitSimulated(specials)

	// 特殊角色可能全是模拟玩家，此时法定数已满足
	c.window.CheckQuorum()

	if c.deps.Records != nil {
		c.deps.Records.Snapshot(c.sess.ID, models.PhaseNight, c.sess.Participants())
	}
}

// promptNightActors 下发夜晚行动提示，即候选目标清单。目标约束
// (黑手党不能杀同伙、医生的自救冷却、警察不查自己、弃刀预算)
// 在这里和提交校验两处同时成立。
func (c *Controller) promptNightActors(specials []*models.Participant) {
	settings := c.sess.Settings()
	alive := c.sess.Alive()

	for _, actor := range specials {
		if !actor.Human {
			continue
		}
		prompt := actionPrompt{Role: actor.Role}
		switch actor.Role {
		case models.RoleMafia:
			for _, p := range alive {
				if p.Role != models.RoleMafia {
					prompt.Targets = append(prompt.Targets, targetOption{ID: p.ID, Name: p.Name})
				}
			}
			prompt.SkipAllowed = c.sess.MafiaSkipsUsed() < settings.MafiaSkipKills
		case models.RoleDoctor:
			for _, p := range alive {
				if p.ID == actor.ID && actor.DoctorSelfSaveUsed {
					continue
				}
				prompt.Targets = append(prompt.Targets, targetOption{ID: p.ID, Name: p.Name})
			}
		case models.RolePolice:
			for _, p := range alive {
				if p.ID != actor.ID {
					prompt.Targets = append(prompt.Targets, targetOption{ID: p.ID, Name: p.Name})
				}
			}
		}
		c.sendTo(actor.ID, network.MsgTypeNightAction, prompt)
	}
}

// autoSubmitSimulated 模拟玩家立即行动，不占法定数。
func (c *Controller) autoSubmitSimulated(specials []*models.Participant) {
	alive := c.sess.Alive()

	pick := func(candidates []*models.Participant) *models.Participant {
		if len(candidates) == 0 {
			return nil
		}
		return candidates[c.deps.Rand.Intn(len(candidates))]
	}

	for _, actor := range specials {
		if actor.Human {
			continue
		}
		actorID := actor.ID
		switch actor.Role {
		case models.RoleMafia:
			var candidates []*models.Participant
			for _, p := range alive {
				if p.Role != models.RoleMafia {
					candidates = append(candidates, p)
				}
			}
			if target := pick(candidates); target != nil {
				c.sess.RecordSimulated(actorID, func() {
					c.sess.RecordMafiaVote(actorID, target.ID)
				})
			}
		case models.RoleDoctor:
			var candidates []*models.Participant
			for _, p := range alive {
				if p.ID == actorID && actor.DoctorSelfSaveUsed {
					continue
				}
				candidates = append(candidates, p)
			}
			if target := pick(candidates); target != nil {
				c.sess.RecordSimulated(actorID, func() {
					c.sess.RecordDoctorSave(target.ID)
				})
			}
		case models.RolePolice:
			var candidates []*models.Participant
			for _, p := range alive {
				if p.ID != actorID {
					candidates = append(candidates, p)
				}
			}
			if target := pick(candidates); target != nil {
				c.sess.RecordSimulated(actorID, func() {
					c.sess.RecordPoliceTarget(target.ID)
				})
			}
		}
	}
}

// SubmitNightAction accepts one night ballot from a special-role actor.
func (c *Controller) SubmitNightAction(actorID, targetID string) error {
	if c.sess.Phase() != models.PhaseNight {
		return ErrWrongPhase
	}
	actor, exists := c.sess.Participant(actorID)
	if !exists {
		return ErrUnknownActor
	}
	if !actor.Alive {
		return ErrDeadActor
	}

	var record func()
	settings := c.sess.Settings()

	switch actor.Role {
	case models.RoleMafia:
		if targetID == models.SkipTarget {
			if c.sess.MafiaSkipsUsed() >= settings.MafiaSkipKills {
				return ErrInvalidTarget
			}
		} else {
			target, ok := c.sess.Participant(targetID)
			if !ok || !target.Alive || target.Role == models.RoleMafia {
				return ErrInvalidTarget
			}
		}
		record = func() { c.sess.RecordMafiaVote(actorID, targetID) }

	case models.RoleDoctor:
		target, ok := c.sess.Participant(targetID)
		if !ok || !target.Alive {
			return ErrInvalidTarget
		}
		// 陈旧客户端可能仍提交被排除的自救目标，这里兜底拒绝
		if targetID == actorID && actor.DoctorSelfSaveUsed {
			return ErrInvalidTarget
		}
		record = func() { c.sess.RecordDoctorSave(targetID) }

	case models.RolePolice:
		target, ok := c.sess.Participant(targetID)
		if !ok || !target.Alive || targetID == actorID {
			return ErrInvalidTarget
		}
		record = func() { c.sess.RecordPoliceTarget(targetID) }

	default:
		return ErrNotYourTurn
	}

	c.mutex.Lock()
	window := c.window
	c.mutex.Unlock()
	if window == nil {
		return ErrWrongPhase
	}

	if err := window.Submit(actorID, record); err != nil {
		return err
	}
	if c.deps.Metrics != nil {
		c.deps.Metrics.IncBallotsReceived()
	}

	// 黑手党之间互通已确认的选择
	if actor.Role == models.RoleMafia {
		c.relayMafiaChoice(actor, targetID)
	}
	return nil
}

func (c *Controller) relayMafiaChoice(actor *models.Participant, targetID string) {
	note := mafiaChatEvent{Sender: actor.Name}
	if targetID == models.SkipTarget {
		note.Text = "voted to skip the kill tonight"
	} else if target, ok := c.sess.Participant(targetID); ok {
		note.Text = "voted to eliminate " + target.Name
	}
	for _, mate := range c.sess.Alive(models.RoleMafia) {
		if mate.ID != actor.ID {
			c.sendTo(mate.ID, network.MsgTypeMafiaChat, note)
		}
	}
}

// RelayMafiaChat forwards night chatter between living mafia members.
func (c *Controller) RelayMafiaChat(senderID, text string) error {
	if c.sess.Phase() != models.PhaseNight {
		return ErrWrongPhase
	}
	sender, exists := c.sess.Participant(senderID)
	if !exists {
		return ErrUnknownActor
	}
	if !sender.Alive {
		return ErrDeadActor
	}
	if sender.Role != models.RoleMafia {
		return ErrNotYourTurn
	}
	for _, mate := range c.sess.Alive(models.RoleMafia) {
		if mate.ID != senderID {
			c.sendTo(mate.ID, network.MsgTypeMafiaChat, mafiaChatEvent{Sender: sender.Name, Text: text})
		}
	}
	return nil
}

func (c *Controller) remindNightActors() {
	for _, p := range c.sess.Alive(models.RoleMafia, models.RoleDoctor, models.RolePolice) {
		if !p.Human || c.sess.HasSubmitted(p.ID) {
			continue
		}
		c.sendTo(p.ID, network.MsgTypeReminder, reminderEvent{
			Message: "the game is waiting for your night action",
		})
	}
}

// nightResolved is the night window's single resolution step.
func (c *Controller) nightResolved() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.sess.Ended() {
		return
	}

	outcome := ResolveNight(c.sess, c.deps.Rand)

	if outcome.InvestateID != "" {
		result := investigationEvent{TargetID: outcome.InvestateID, IsMafia: outcome.IsMafia}
		for _, police := range c.sess.Alive(models.RolePolice) {
			c.sendTo(police.ID, network.MsgTypeInvestigation, result)
		}
	}

	c.startDay(outcome)
}

// --- 白天阶段 ---

// startDay runs under c.mutex.
func (c *Controller) startDay(outcome models.NightOutcome) {
	if c.sess.Ended() {
		return
	}
	c.transition(models.PhaseDay)

	// 白天只给存活者解除静音，死者保持静音到终局
	for _, p := range c.sess.Participants() {
		c.moderate(p.ID, !p.Alive)
	}

	event := nightResultEvent{
		Saved:   outcome.Saved,
		Skipped: outcome.Skipped,
	}
	if outcome.VictimID != "" {
		if victim, ok := c.sess.Participant(outcome.VictimID); ok {
			event.VictimID = victim.ID
			event.VictimName = victim.Name
			event.Reveal = revealFor(victim.Role, c.sess.Settings().RevealMode)
		}
	}
	event.Alive = c.aliveNames()
	c.broadcast(network.MsgTypeNightResult, event)

	if outcome.VictimID != "" && c.evaluateWin() {
		return
	}

	// 讨论窗口到期自动进入投票，主持人可用 ForceResolvePhase 跳过
	discussion := c.sess.Settings().DiscussionTime
	id := c.deps.Timers.After(discussion, func() {
		c.mutex.Lock()
		defer c.mutex.Unlock()
		if c.sess.Ended() || c.sess.Phase() != models.PhaseDay {
			return
		}
		c.startVoting()
	})
	c.sess.TrackTimer(id)
}

// --- 投票阶段 ---

// startVoting runs under c.mutex.
func (c *Controller) startVoting() {
	if c.sess.Ended() {
		return
	}
	c.transition(models.PhaseVoting)
	c.sess.ResetDayVotes()

	settings := c.sess.Settings()
	c.broadcast(network.MsgTypePhaseChange, phaseEvent{
		Phase:     models.PhaseVoting,
		Round:     c.sess.Round(),
		Alive:     c.sess.AliveCount(),
		Remaining: int(settings.VotingTime.Seconds()),
	})

	c.window = OpenWindow(c.sess, c.deps.Timers, WindowConfig{
		EarlyExit:      false,
		Countdown:      settings.VotingTime,
		StatusInterval: voteStatusInterval,
	}, WindowCallbacks{
		Resolve: c.votingResolved,
		Status:  c.voteCountdown,
	})

	c.autoVoteSimulated()
}

// autoVoteSimulated 模拟玩家立即投票：三成弃票，其余随机投人。
func (c *Controller) autoVoteSimulated() {
	alive := c.sess.Alive()
	for _, voter := range alive {
		if voter.Human {
			continue
		}
		voterID := voter.ID
		if c.deps.Rand.Intn(10) < 3 {
			c.sess.RecordSimulated(voterID, func() {
				c.sess.RecordDayVote(voterID, models.SkipTarget)
			})
			continue
		}
		var candidates []*models.Participant
		for _, p := range alive {
			if p.ID != voterID {
				candidates = append(candidates, p)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		target := candidates[c.deps.Rand.Intn(len(candidates))]
		c.sess.RecordSimulated(voterID, func() {
			c.sess.RecordDayVote(voterID, target.ID)
		})
	}
}

// SubmitVote accepts one elimination ballot. Empty target or the skip
// sentinel means abstain.
func (c *Controller) SubmitVote(actorID, targetID string) error {
	if c.sess.Phase() != models.PhaseVoting {
		return ErrWrongPhase
	}
	actor, exists := c.sess.Participant(actorID)
	if !exists {
		return ErrUnknownActor
	}
	if !actor.Alive {
		return ErrDeadActor
	}

	if targetID == "" {
		targetID = models.SkipTarget
	}
	if targetID != models.SkipTarget {
		target, ok := c.sess.Participant(targetID)
		if !ok || !target.Alive {
			return ErrInvalidTarget
		}
	}

	c.mutex.Lock()
	window := c.window
	c.mutex.Unlock()
	if window == nil {
		return ErrWrongPhase
	}

	err := window.Submit(actorID, func() {
		c.sess.RecordDayVote(actorID, targetID)
	})
	if err != nil {
		return err
	}
	if c.deps.Metrics != nil {
		c.deps.Metrics.IncBallotsReceived()
	}
	return nil
}

func (c *Controller) voteCountdown(remaining time.Duration) {
	seconds := int(remaining.Round(time.Second).Seconds())
	c.broadcast(network.MsgTypeCountdown, countdownEvent{
		Remaining: seconds,
		Warning:   seconds <= 10,
	})
}

// votingResolved is the voting window's single resolution step.
func (c *Controller) votingResolved() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.sess.Ended() {
		return
	}

	alive := c.sess.Alive()
	if len(alive) == 0 {
		// 不变量被破坏：没有存活者却在结算，防御性终局
		logger.Log.Errorf("Room %s: vote resolution with empty living roster, force ending", c.sess.ID)
		c.endGame(models.WinnerNone, "invariant violation")
		return
	}

	outcome := TallyVotes(c.sess.DayBallots(), alive)

	event := voteResultEvent{
		Verdict: outcome.Verdict,
		Counts:  c.namedCounts(outcome.Counts),
	}
	if outcome.Verdict == models.VerdictEliminated {
		c.sess.Kill(outcome.EliminatedID)
		if p, ok := c.sess.Participant(outcome.EliminatedID); ok {
			event.EliminatedID = p.ID
			event.EliminatedName = p.Name
		}
	}
	c.broadcast(network.MsgTypeVoteResult, event)

	if outcome.Verdict == models.VerdictEliminated {
		c.revealElimination(outcome)
		if c.evaluateWin() {
			return
		}
	}

	c.startNight()
}

// revealElimination 按公开模式通报出局者身份。模式二/三延迟两秒
// 公开，模仿原版的悬念停顿；定时回调醒来时会先重查终止标志。
func (c *Controller) revealElimination(outcome models.VoteOutcome) {
	mode := c.sess.Settings().RevealMode
	if mode == models.RevealNone {
		return
	}
	reveal := revealFor(outcome.EliminatedRole, mode)
	name := ""
	if p, ok := c.sess.Participant(outcome.EliminatedID); ok {
		name = p.Name
	}
	id := c.deps.Timers.After(2*time.Second, func() {
		if c.sess.Ended() {
			return
		}
		c.broadcast(network.MsgTypeVoteResult, revealEvent{
			Name:   name,
			Reveal: reveal,
		})
	})
	c.sess.TrackTimer(id)
}

// --- 终局 ---

// evaluateWin runs under c.mutex, only after a finalized death or
// elimination. Returns true when the game ended.
func (c *Controller) evaluateWin() bool {
	winner := EvaluateWin(c.sess.Participants())
	if winner == models.WinnerNone {
		return false
	}
	c.endGame(winner, "win condition met")
	return true
}

// endGame runs under c.mutex. Terminal from any state.
func (c *Controller) endGame(winner models.Winner, reason string) {
	if c.sess.Ended() {
		return
	}
	c.transition(models.PhaseEnded)

	// 先取消本会话的全部后台定时器；已在途的回调会被终止标志拦下
	c.deps.Timers.RemoveAll(c.sess.DrainTimers())
	if c.window != nil {
		c.window.Cancel()
		c.window = nil
	}

	// 终局全员解除静音
	for _, p := range c.sess.Participants() {
		c.moderate(p.ID, false)
	}

	event := gameEndEvent{
		Winner: winner,
		Reason: reason,
		Rounds: c.sess.Round(),
	}
	for _, p := range c.sess.Participants() {
		status := "dead"
		if p.Alive {
			status = "alive"
		}
		event.Roles = append(event.Roles, finalRole{
			Name:   p.Name,
			Role:   p.Role,
			Status: status,
		})
	}
	c.broadcast(network.MsgTypeGameEnd, event)

	if c.deps.Records != nil && c.rolesAssigned {
		record := c.deps.Records.BuildRecord(c.sess.ID, c.sess.Participants(), winner, c.sess.Round())
		record.Result["duration_seconds"] = int(time.Since(c.startedAt).Seconds())
		c.deps.Records.Archive(record)
	}

	if c.deps.Metrics != nil {
		c.deps.Metrics.DecActiveSessions()
		if winner != models.WinnerNone {
			c.deps.Metrics.IncGamesCompleted()
		}
	}

	c.deps.Store.Remove(c.sess.ID)
	logger.Log.Infof("Room %s: game ended (%s), winner=%q, rounds=%d",
		c.sess.ID, reason, winner, c.sess.Round())

	if c.onEnd != nil {
		c.onEnd()
		c.onEnd = nil
	}
}

// --- 管理指令 ---

// ForceStop terminates the session from any state. Pending timers
// observe the terminal flag on their next wake and do nothing.
func (c *Controller) ForceStop() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.endGame(models.WinnerNone, "force stopped by admin")
}

// ForceResolvePhase ends the current phase immediately: night and
// voting windows resolve with the ballots collected so far, the day
// discussion jumps straight to voting.
func (c *Controller) ForceResolvePhase() error {
	c.mutex.Lock()
	phase := c.sess.Phase()
	window := c.window
	c.mutex.Unlock()

	switch phase {
	case models.PhaseNight, models.PhaseVoting:
		if window == nil {
			return ErrWrongPhase
		}
		window.Resolve()
		return nil
	case models.PhaseDay:
		c.mutex.Lock()
		defer c.mutex.Unlock()
		if c.sess.Ended() || c.sess.Phase() != models.PhaseDay {
			return ErrWrongPhase
		}
		c.startVoting()
		return nil
	default:
		return ErrWrongPhase
	}
}

// --- 内部工具 ---

// transition runs under c.mutex.
func (c *Controller) transition(next models.Phase) {
	if c.deps.Metrics != nil {
		c.deps.Metrics.ObservePhaseDuration(time.Since(c.phaseStart))
	}
	c.phaseStart = time.Now()
	c.sess.SetPhase(next)
}

func (c *Controller) aliveNames() []string {
	var names []string
	for _, p := range c.sess.Alive() {
		names = append(names, p.Name)
	}
	return names
}

// namedCounts 把计票结果的目标 id 换成名字，弃票保持哨兵键。
func (c *Controller) namedCounts(counts map[string]int) map[string]int {
	out := make(map[string]int, len(counts))
	for target, n := range counts {
		if target == models.SkipTarget {
			out[target] = n
			continue
		}
		if p, ok := c.sess.Participant(target); ok {
			out[p.Name] = n
		} else {
			out[target] = n
		}
	}
	return out
}

func (c *Controller) broadcast(msgID uint16, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("Room %s: marshal broadcast %d: %v", c.sess.ID, msgID, err)
		return
	}
	if err := c.deps.Messenger.Broadcast(c.sess.ID, msgID, data); err != nil {
		logger.Log.Warnf("Room %s: broadcast %d failed: %v", c.sess.ID, msgID, err)
	}
}

func (c *Controller) sendTo(participantID string, msgID uint16, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("Room %s: marshal unicast %d: %v", c.sess.ID, msgID, err)
		return
	}
	if err := c.deps.Messenger.SendTo(participantID, msgID, data); err != nil {
		logger.Log.Debugf("Room %s: unicast %d to %s failed: %v", c.sess.ID, msgID, participantID, err)
	}
}

func (c *Controller) moderate(participantID string, mute bool) {
	if c.deps.Moderator == nil {
		return
	}
	var err error
	if mute {
		err = c.deps.Moderator.Mute(participantID)
	} else {
		err = c.deps.Moderator.Unmute(participantID)
	}
	if err != nil {
		logger.Log.Debugf("Room %s: moderation for %s failed: %v", c.sess.ID, participantID, err)
	}
}

// revealFor 按公开模式折算出局者身份信息
func revealFor(role models.Role, mode int) string {
	switch mode {
	case models.RevealNone:
		return ""
	case models.RevealFaction:
		if role == models.RoleMafia {
			return "mafia"
		}
		return "not_mafia"
	default:
		return string(role)
	}
}

// broadcastRoomState 注册阶段的房间状态播报
func (c *Controller) broadcastRoomState() {
	var names []string
	for _, p := range c.sess.Participants() {
		names = append(names, p.Name)
	}
	c.broadcast(network.MsgTypeRoomState, roomStateEvent{
		Phase:      c.sess.Phase(),
		Players:    names,
		MinPlayers: c.sess.Settings().MinPlayers(),
	})
}
