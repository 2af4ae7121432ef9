package game

import (
	"testing"
	"time"

	"github.com/wfunc/mafia/models"
	"github.com/wfunc/mafia/session"
	"github.com/wfunc/mafia/timer"
)

// 定时器管理器以 100ms 为节拍，测试里的等待都留了富余。

func newWindowSession(expected int) *session.Session {
	sess := session.NewSession("room", "host", testSettings())
	sess.SetPhase(models.PhaseNight)
	sess.ResetNightRound(expected)
	return sess
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

func TestWindow_DuplicateSubmission(t *testing.T) {
	timers := timer.NewManager()
	defer timers.Stop()
	sess := newWindowSession(2)

	w := OpenWindow(sess, timers, WindowConfig{EarlyExit: true, Grace: time.Second},
		WindowCallbacks{Resolve: func() {}})

	if err := w.Submit("a", nil); err != nil {
		t.Fatalf("First submission should pass, got %v", err)
	}
	if err := w.Submit("a", nil); err != ErrDuplicateSubmission {
		t.Fatalf("Expected ErrDuplicateSubmission, got %v", err)
	}
	if err := w.Submit("b", nil); err != nil {
		t.Fatalf("A different actor should pass, got %v", err)
	}
}

func TestWindow_QuorumGraceResolves(t *testing.T) {
	timers := timer.NewManager()
	defer timers.Stop()
	sess := newWindowSession(1)

	resolved := make(chan struct{})
	w := OpenWindow(sess, timers, WindowConfig{EarlyExit: true, Grace: 150 * time.Millisecond},
		WindowCallbacks{Resolve: func() { close(resolved) }})

	if err := w.Submit("a", nil); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case <-resolved:
	case <-time.After(2 * time.Second):
		t.Fatal("Window did not resolve after the grace period")
	}
}

// 强停发生在宽限期内时，迟醒的宽限定时器必须撞上终止标志并放弃。
func TestWindow_ForceStopDuringGrace(t *testing.T) {
	timers := timer.NewManager()
	defer timers.Stop()
	sess := newWindowSession(1)

	resolved := false
	w := OpenWindow(sess, timers, WindowConfig{EarlyExit: true, Grace: 300 * time.Millisecond},
		WindowCallbacks{Resolve: func() { resolved = true }})

	if err := w.Submit("a", nil); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	sess.SetPhase(models.PhaseEnded)

	time.Sleep(time.Second)
	if resolved {
		t.Fatal("Resolution ran after the session ended")
	}
}

func TestWindow_SubmitAfterResolveRejected(t *testing.T) {
	timers := timer.NewManager()
	defer timers.Stop()
	sess := newWindowSession(2)

	w := OpenWindow(sess, timers, WindowConfig{EarlyExit: true, Grace: time.Second},
		WindowCallbacks{Resolve: func() {}})

	w.Resolve()
	if err := w.Submit("a", nil); err != ErrWrongPhase {
		t.Fatalf("Expected ErrWrongPhase after resolution, got %v", err)
	}
}

func TestWindow_CountdownResolves(t *testing.T) {
	timers := timer.NewManager()
	defer timers.Stop()
	sess := newWindowSession(0)

	resolved := make(chan struct{})
	OpenWindow(sess, timers, WindowConfig{Countdown: 200 * time.Millisecond},
		WindowCallbacks{Resolve: func() { close(resolved) }})

	select {
	case <-resolved:
	case <-time.After(2 * time.Second):
		t.Fatal("Countdown window did not resolve")
	}
}

// 期望提交数为零的夜晚（特殊角色全是模拟玩家）也要能走完宽限并结算。
func TestWindow_CheckQuorumZeroExpected(t *testing.T) {
	timers := timer.NewManager()
	defer timers.Stop()
	sess := newWindowSession(0)

	resolved := make(chan struct{})
	w := OpenWindow(sess, timers, WindowConfig{EarlyExit: true, Grace: 150 * time.Millisecond},
		WindowCallbacks{Resolve: func() { close(resolved) }})
	w.CheckQuorum()

	select {
	case <-resolved:
	case <-time.After(2 * time.Second):
		t.Fatal("Zero-expected window did not resolve")
	}
}

func TestWindow_ResolveOnlyOnce(t *testing.T) {
	timers := timer.NewManager()
	defer timers.Stop()
	sess := newWindowSession(1)

	count := 0
	w := OpenWindow(sess, timers, WindowConfig{EarlyExit: true, Grace: time.Second},
		WindowCallbacks{Resolve: func() { count++ }})

	w.Resolve()
	w.Resolve()
	if count != 1 {
		t.Fatalf("Expected exactly one resolution, got %d", count)
	}
}
