// game/window.go
package game

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wfunc/mafia/session"
	"github.com/wfunc/mafia/timer"
)

// WindowConfig 一次提交收集窗口的参数。
//
// EarlyExit 为真时是夜晚模式：没有硬性截止，达到法定提交数后先
// 等待 Grace 宽限期再结算，期间每隔 ReminderInterval 提醒未提交者。
// EarlyExit 为假时是投票模式：固定 Countdown 倒计时结算，未提交者
// 按弃票处理，StatusInterval 控制倒计时播报节奏。
type WindowConfig struct {
	EarlyExit        bool
	Grace            time.Duration
	ReminderInterval time.Duration
	Countdown        time.Duration
	StatusInterval   time.Duration
}

// WindowCallbacks 窗口到控制器的回调。Resolve 保证至多执行一次。
type WindowCallbacks struct {
	Resolve func()
	Remind  func()
	Status  func(remaining time.Duration)
}

// ActionWindow 并发提交收集器。提交计数与已提交集合都存放在会话
// 里，窗口负责法定数判断、宽限与倒计时的调度，以及结算的单次性。
type ActionWindow struct {
	sess   *session.Session
	timers *timer.Manager
	cfg    WindowConfig
	cb     WindowCallbacks

	// done guards the actual resolution step; the session's
	// auto-resolve latch only guards scheduling the grace timer.
	done     atomic.Bool
	deadline time.Time

	mutex    sync.Mutex
	timerIDs []int64
}

// OpenWindow schedules the window's background timers and returns it.
func OpenWindow(sess *session.Session, timers *timer.Manager, cfg WindowConfig, cb WindowCallbacks) *ActionWindow {
	w := &ActionWindow{
		sess:   sess,
		timers: timers,
		cfg:    cfg,
		cb:     cb,
	}

	if cfg.EarlyExit {
		if cfg.ReminderInterval > 0 && cb.Remind != nil {
			w.track(timers.Every(cfg.ReminderInterval, w.guard(cb.Remind)))
		}
	} else {
		w.deadline = time.Now().Add(cfg.Countdown)
		w.track(timers.After(cfg.Countdown, w.Resolve))
		if cfg.StatusInterval > 0 && cb.Status != nil {
			w.track(timers.Every(cfg.StatusInterval, w.guard(func() {
				remaining := time.Until(w.deadline)
				if remaining > 0 {
					w.cb.Status(remaining)
				}
			})))
		}
	}

	return w
}

// Submit runs the atomic check-and-insert for actorID and, in night
// mode, checks the quorum condition. record is applied under the
// session lock together with the submitted mark. Validation of actor,
// phase and target happens before this call.
func (w *ActionWindow) Submit(actorID string, record func()) error {
	if w.done.Load() || w.sess.Ended() {
		return ErrWrongPhase
	}
	if !w.sess.TryRecordSubmission(actorID, record) {
		return ErrDuplicateSubmission
	}
	w.notifySubmitted()
	return nil
}

// notifySubmitted schedules the grace timer when a submission completes
// the quorum. Both racing submitters observe the quorum, but only the
// CAS winner schedules.
func (w *ActionWindow) notifySubmitted() {
	if !w.cfg.EarlyExit {
		return
	}
	if w.sess.QuorumReached() {
		w.scheduleAutoResolve()
	}
}

// CheckQuorum re-evaluates the early-exit condition. Called right after
// opening a window whose expected count may already be satisfied, e.g.
// when every special role is simulated and expected is zero.
func (w *ActionWindow) CheckQuorum() {
	if !w.cfg.EarlyExit {
		return
	}
	received, expected := w.sess.Pending()
	if expected == 0 || received >= expected {
		w.scheduleAutoResolve()
	}
}

func (w *ActionWindow) scheduleAutoResolve() {
	if !w.sess.TryTriggerAutoResolve() {
		return
	}
	if w.cfg.Grace > 0 {
		w.track(w.timers.After(w.cfg.Grace, w.Resolve))
	} else {
		go w.Resolve()
	}
}

// Resolve performs the window's single resolution. Timers that wake up
// after a force-stop find the terminal flag set and do nothing.
func (w *ActionWindow) Resolve() {
	if !w.done.CompareAndSwap(false, true) {
		return
	}
	w.closeTimers()
	if w.sess.Ended() {
		return
	}
	w.cb.Resolve()
}

// Cancel tears the window down without resolving.
func (w *ActionWindow) Cancel() {
	w.done.Store(true)
	w.closeTimers()
}

func (w *ActionWindow) guard(f func()) func() {
	return func() {
		if w.done.Load() || w.sess.Ended() {
			return
		}
		f()
	}
}

func (w *ActionWindow) track(id int64) {
	w.mutex.Lock()
	w.timerIDs = append(w.timerIDs, id)
	w.mutex.Unlock()
	w.sess.TrackTimer(id)
}

func (w *ActionWindow) closeTimers() {
	w.mutex.Lock()
	ids := w.timerIDs
	w.timerIDs = nil
	w.mutex.Unlock()
	w.timers.RemoveAll(ids)
}
