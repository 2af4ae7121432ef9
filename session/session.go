// session/session.go
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wfunc/mafia/models"
)

// Session 单个房间的全部可变游戏状态。各房间互不共享，
// 内部由一把互斥锁保护，只有 game 包的控制器和它安装的回调会修改它。
type Session struct {
	ID        string
	HostID    string
	CreatedAt time.Time

	mutex        sync.RWMutex
	phase        models.Phase
	round        int
	participants map[string]*models.Participant
	settings     models.GameSettings

	// 当前夜晚回合的提交状态
	mafiaVotes   map[string]string // voter id -> target id / SkipTarget
	doctorSave   string
	policeTarget string
	submitted    map[string]struct{}
	expected     int
	received     int

	// autoResolve is the one-shot latch preventing double resolution
	// when two submissions race to complete the quorum.
	autoResolve atomic.Bool

	// 白天投票
	dayVotes map[string]string // voter id -> target id / SkipTarget

	mafiaSkipsUsed int

	// timerIDs are the background timers owned by this session,
	// removed from the timer manager on force-stop.
	timerIDs []int64
}

func NewSession(id, hostID string, settings models.GameSettings) *Session {
	return &Session{
		ID:           id,
		HostID:       hostID,
		CreatedAt:    time.Now(),
		phase:        models.PhaseWaiting,
		participants: make(map[string]*models.Participant),
		settings:     settings,
		mafiaVotes:   make(map[string]string),
		submitted:    make(map[string]struct{}),
		dayVotes:     make(map[string]string),
	}
}

func (s *Session) Phase() models.Phase {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.phase
}

func (s *Session) SetPhase(phase models.Phase) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.phase = phase
}

// Ended reports the terminal flag. Every deferred timer callback must
// check this immediately before acting.
func (s *Session) Ended() bool {
	return s.Phase() == models.PhaseEnded
}

func (s *Session) Round() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.round
}

// IncrementRound bumps the round counter, exactly once per night entry.
func (s *Session) IncrementRound() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.round++
	return s.round
}

func (s *Session) Settings() models.GameSettings {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.settings
}

// UpdateSettings replaces the rule set. The controller only allows this
// during REGISTRATION.
func (s *Session) UpdateSettings(settings models.GameSettings) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.settings = settings
}

// --- 参与者 ---

func (s *Session) AddParticipant(p *models.Participant) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, exists := s.participants[p.ID]; exists {
		return false
	}
	s.participants[p.ID] = p
	return true
}

func (s *Session) RemoveParticipant(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.participants, id)
}

func (s *Session) Participant(id string) (*models.Participant, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	p, exists := s.participants[id]
	return p, exists
}

// Participants returns a snapshot copy of the roster.
func (s *Session) Participants() []*models.Participant {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]*models.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	return out
}

func (s *Session) ParticipantCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.participants)
}

// Alive returns the living participants, optionally filtered by role.
func (s *Session) Alive(roles ...models.Role) []*models.Participant {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	var out []*models.Participant
	for _, p := range s.participants {
		if !p.Alive {
			continue
		}
		if len(roles) == 0 {
			out = append(out, p)
			continue
		}
		for _, r := range roles {
			if p.Role == r {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func (s *Session) AliveCount() int {
	return len(s.Alive())
}

// Kill marks a participant dead. Returns false for unknown or already
// dead targets.
func (s *Session) Kill(id string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	p, exists := s.participants[id]
	if !exists || !p.Alive {
		return false
	}
	p.Alive = false
	return true
}

// SetDoctorSelfSave updates the self-save cooldown bookkeeping.
func (s *Session) SetDoctorSelfSave(id string, used bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if p, exists := s.participants[id]; exists {
		p.DoctorSelfSaveUsed = used
	}
}

// --- 回合提交状态 ---

// ResetNightRound clears the collection state for a fresh night round.
func (s *Session) ResetNightRound(expected int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.mafiaVotes = make(map[string]string)
	s.doctorSave = ""
	s.policeTarget = ""
	s.submitted = make(map[string]struct{})
	s.expected = expected
	s.received = 0
	s.autoResolve.Store(false)
}

// ResetDayVotes clears the ballot box for a fresh voting round.
func (s *Session) ResetDayVotes() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.dayVotes = make(map[string]string)
	s.submitted = make(map[string]struct{})
	s.expected = 0
	s.received = 0
	s.autoResolve.Store(false)
}

// TryRecordSubmission performs the atomic check-and-insert into the
// submitted-actor set. Returns false if the actor already submitted
// this round. record runs under the session lock so the ballot and the
// submitted mark land together.
func (s *Session) TryRecordSubmission(actorID string, record func()) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, dup := s.submitted[actorID]; dup {
		return false
	}
	s.submitted[actorID] = struct{}{}
	s.received++
	if record != nil {
		record()
	}
	return true
}

// RecordSimulated records a ballot for a simulated actor. Simulated
// actors resolve instantly and never count toward the quorum, so the
// received counter stays untouched.
func (s *Session) RecordSimulated(actorID string, record func()) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.submitted[actorID] = struct{}{}
	if record != nil {
		record()
	}
}

func (s *Session) HasSubmitted(actorID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.submitted[actorID]
	return ok
}

// RecordMafiaVote, RecordDoctorSave and RecordPoliceTarget are meant to
// run inside the record callback of TryRecordSubmission; the lock is
// already held there, so they write the fields directly.
func (s *Session) RecordMafiaVote(voterID, targetID string) {
	s.mafiaVotes[voterID] = targetID
}

func (s *Session) RecordDoctorSave(targetID string) {
	s.doctorSave = targetID
}

func (s *Session) RecordPoliceTarget(targetID string) {
	s.policeTarget = targetID
}

func (s *Session) RecordDayVote(voterID, targetID string) {
	s.dayVotes[voterID] = targetID
}

// NightBallots returns copies of the night submissions.
func (s *Session) NightBallots() (mafiaVotes map[string]string, doctorSave, policeTarget string) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	mafiaVotes = make(map[string]string, len(s.mafiaVotes))
	for k, v := range s.mafiaVotes {
		mafiaVotes[k] = v
	}
	return mafiaVotes, s.doctorSave, s.policeTarget
}

// DayBallots returns a copy of the day votes.
func (s *Session) DayBallots() map[string]string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make(map[string]string, len(s.dayVotes))
	for k, v := range s.dayVotes {
		out[k] = v
	}
	return out
}

// Pending reports received vs expected submissions for the round.
func (s *Session) Pending() (received, expected int) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.received, s.expected
}

func (s *Session) QuorumReached() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.expected > 0 && s.received >= s.expected
}

// TryTriggerAutoResolve flips the one-shot latch. Only the caller that
// wins the CAS may schedule the grace timer.
func (s *Session) TryTriggerAutoResolve() bool {
	return s.autoResolve.CompareAndSwap(false, true)
}

// --- 黑手党弃刀预算 ---

func (s *Session) MafiaSkipsUsed() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.mafiaSkipsUsed
}

func (s *Session) IncrementMafiaSkips() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.mafiaSkipsUsed++
}

// --- 定时器归属 ---

func (s *Session) TrackTimer(id int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.timerIDs = append(s.timerIDs, id)
}

// DrainTimers hands back and forgets all owned timer ids so the caller
// can remove them from the timer manager.
func (s *Session) DrainTimers() []int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	ids := s.timerIDs
	s.timerIDs = nil
	return ids
}

// --- 会话注册表 ---

// Store 管理所有进行中的会话，每个房间一个
type Store struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session for the room. Returns false if one
// already exists.
func (m *Store) Create(sess *Session) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.sessions[sess.ID]; exists {
		return false
	}
	m.sessions[sess.ID] = sess
	return true
}

func (m *Store) Get(id string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	sess, exists := m.sessions[id]
	return sess, exists
}

func (m *Store) Remove(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, id)
}

func (m *Store) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
