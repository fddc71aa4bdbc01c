package scraper

import (
	"testing"
	"time"
)

func waitDone(tr *idleTracker, d time.Duration) bool {
	select {
	case <-tr.Done():
		return true
	case <-time.After(d):
		return false
	}
}

func TestIdleTracker_NotBeforeArm(t *testing.T) {
	tr := newIdleTracker(2, 10*time.Millisecond)
	defer tr.stop()

	if waitDone(tr, 50*time.Millisecond) {
		t.Fatal("tracker fired before being armed")
	}
	tr.arm()
	if !waitDone(tr, time.Second) {
		t.Fatal("tracker did not fire once armed and quiet")
	}
}

func TestIdleTracker_ToleratesMaxInflight(t *testing.T) {
	tr := newIdleTracker(2, 20*time.Millisecond)
	defer tr.stop()

	tr.started("a")
	tr.started("b")
	tr.arm()
	if !waitDone(tr, time.Second) {
		t.Fatal("two long-polling requests should not block quiescence")
	}
}

func TestIdleTracker_BusyNetworkBlocks(t *testing.T) {
	tr := newIdleTracker(2, 20*time.Millisecond)
	defer tr.stop()

	tr.started("a")
	tr.started("b")
	tr.started("c")
	tr.arm()
	if waitDone(tr, 80*time.Millisecond) {
		t.Fatal("fired with three requests in flight")
	}

	tr.finished("c")
	if !waitDone(tr, time.Second) {
		t.Fatal("did not fire after the network quieted")
	}
}

func TestIdleTracker_NewRequestRestartsWindow(t *testing.T) {
	tr := newIdleTracker(0, 60*time.Millisecond)
	defer tr.stop()

	tr.arm()
	time.Sleep(30 * time.Millisecond)
	tr.started("late")
	time.Sleep(50 * time.Millisecond)
	tr.finished("late")

	select {
	case <-tr.Done():
		t.Fatal("fired while a request was in flight")
	default:
	}
	if !waitDone(tr, time.Second) {
		t.Fatal("did not fire after the late request finished")
	}
}

func TestIdleTracker_FinishedUnknownID(t *testing.T) {
	tr := newIdleTracker(0, 10*time.Millisecond)
	defer tr.stop()

	tr.finished("never-started")
	tr.arm()
	if !waitDone(tr, time.Second) {
		t.Fatal("unknown finish should be harmless")
	}
}
