package emit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Vodeneev/livebet/internal/pkg/models"
)

type captureEmitter struct {
	signals []models.Signal
	err     error
	closed  bool
}

func (c *captureEmitter) Emit(ctx context.Context, s *models.Signal) error {
	if c.err != nil {
		return c.err
	}
	c.signals = append(c.signals, *s)
	return nil
}

func (c *captureEmitter) Close() { c.closed = true }

func testSignal(matchID string, mainOdds float64) *models.Signal {
	return &models.Signal{
		ID:         matchID + "-sig",
		MatchID:    matchID,
		MainMarket: models.MarketSetWinner,
		MainSide:   models.SideP2,
		MainOdds:   mainOdds,
		MainStake:  30,
		CreatedAt:  time.Now(),
	}
}

func TestDeduperCooldown(t *testing.T) {
	next := &captureEmitter{}
	d := NewDeduper(next, time.Hour)
	ctx := context.Background()

	d.Emit(ctx, testSignal("m1", 1.95))
	d.Emit(ctx, testSignal("m1", 1.95))
	d.Emit(ctx, testSignal("m1", 1.97)) // within the re-arm delta, still suppressed
	if len(next.signals) != 1 {
		t.Fatalf("downstream received %d signals, want 1", len(next.signals))
	}

	// a different match is an independent key
	d.Emit(ctx, testSignal("m2", 1.95))
	if len(next.signals) != 2 {
		t.Errorf("downstream received %d signals, want 2", len(next.signals))
	}

	// a noticeable odds move re-arms the key before the cooldown expires
	d.Emit(ctx, testSignal("m1", 2.20))
	if len(next.signals) != 3 {
		t.Errorf("downstream received %d signals, want 3", len(next.signals))
	}

	d.Close()
	if !next.closed {
		t.Error("Close did not propagate downstream")
	}
}

func TestDeduperExpiredCooldown(t *testing.T) {
	next := &captureEmitter{}
	d := NewDeduper(next, 10*time.Millisecond)
	ctx := context.Background()

	d.Emit(ctx, testSignal("m1", 1.95))
	time.Sleep(20 * time.Millisecond)
	d.Emit(ctx, testSignal("m1", 1.95))
	if len(next.signals) != 2 {
		t.Errorf("downstream received %d signals after cooldown expiry, want 2", len(next.signals))
	}
}

func TestFanoutContinuesPastFailures(t *testing.T) {
	failing := &captureEmitter{err: errors.New("sink down")}
	healthy := &captureEmitter{}
	f := NewFanout(failing, healthy)

	err := f.Emit(context.Background(), testSignal("m1", 1.95))
	if err == nil {
		t.Error("Emit must surface the sink failure")
	}
	if len(healthy.signals) != 1 {
		t.Errorf("healthy sink received %d signals, want 1", len(healthy.signals))
	}

	f.Close()
	if !failing.closed || !healthy.closed {
		t.Error("Close must reach every registered emitter")
	}
}

func TestRingCapacityAndOrder(t *testing.T) {
	r := NewRing(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		r.Emit(ctx, testSignal(fmt.Sprintf("m%d", i), 1.95))
	}

	recent := r.Recent()
	if len(recent) != 3 {
		t.Fatalf("ring holds %d signals, want 3", len(recent))
	}
	wantIDs := []string{"m4", "m3", "m2"}
	for i, want := range wantIDs {
		if recent[i].MatchID != want {
			t.Errorf("recent[%d] = %s, want %s (newest first)", i, recent[i].MatchID, want)
		}
	}
}
