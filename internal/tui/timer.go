package tui

import (
	"context"
	"time"

	"github.com/sadopc/stampclock/internal/stamp"
	"github.com/sadopc/stampclock/internal/tracking"
)

// timerState tracks whether the user has an open record.
type timerState int

const (
	timerCheckedOut timerState = iota
	timerCheckedIn
)

// timerModel follows the user's open record and keeps the clock logic out of
// the dashboard rendering.
type timerModel struct {
	svc    *tracking.Service
	userID int64

	state    timerState
	recordID int64
	checkIn  time.Time
	elapsed  time.Duration

	now func() time.Time
}

func newTimerModel(svc *tracking.Service, userID int64) timerModel {
	return timerModel{
		svc:    svc,
		userID: userID,
		state:  timerCheckedOut,
		now:    time.Now,
	}
}

// sync adopts latest as the current state. A nil or closed record means
// checked out.
func (t *timerModel) sync(latest *stamp.StampRecord) {
	if latest == nil || !latest.Open() {
		t.state = timerCheckedOut
		t.recordID = 0
		t.elapsed = 0
		return
	}
	t.state = timerCheckedIn
	t.recordID = latest.ID
	t.checkIn = latest.CheckIn()
	t.tick()
}

func (t *timerModel) checkInNow(ctx context.Context) (stamp.StampRecord, error) {
	r, err := t.svc.CheckIn(ctx, t.userID, t.now().UnixMilli())
	if err != nil {
		return stamp.StampRecord{}, err
	}
	t.sync(&r)
	return r, nil
}

func (t *timerModel) checkOutNow(ctx context.Context) (stamp.StampRecord, error) {
	r, err := t.svc.CheckOut(ctx, t.userID, t.now().UnixMilli())
	if err != nil {
		return stamp.StampRecord{}, err
	}
	t.sync(&r)
	return r, nil
}

func (t *timerModel) tick() {
	if t.state == timerCheckedIn {
		t.elapsed = t.now().Sub(t.checkIn)
	}
}

func (t timerModel) running() bool {
	return t.state == timerCheckedIn
}

func (t timerModel) currentElapsed() time.Duration {
	if t.state == timerCheckedOut {
		return 0
	}
	return t.now().Sub(t.checkIn)
}

// breakDue is the deduction the open record would get if closed now.
func (t timerModel) breakDue() time.Duration {
	return stamp.BreakFor(t.currentElapsed())
}

// nextBreakIn returns the time left until the next break bracket starts,
// or false when the largest bracket is already reached.
func (t timerModel) nextBreakIn() (time.Duration, bool) {
	elapsed := t.currentElapsed()
	var next time.Duration
	found := false
	for _, rule := range stamp.BreakRules {
		if rule.Threshold > elapsed {
			next = rule.Threshold - elapsed
			found = true
		}
	}
	return next, found
}
