package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/sadopc/stampclock/internal/stamp"
	"github.com/sadopc/stampclock/internal/storetest"
	"github.com/sadopc/stampclock/internal/tracking"
)

func TestRecordStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) tracking.RecordStore { return New() })
}

func TestFailWith(t *testing.T) {
	s := New()
	boom := errors.New("connection refused")
	s.FailWith(boom)

	if _, err := s.Get(context.Background(), 1); !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	s.FailWith(nil)
	if _, err := s.Get(context.Background(), 1); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Insert(ctx, stamp.New(1, 1, 2)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := New()
	saved, _ := s.Insert(context.Background(), stamp.New(1, 10, 20))
	*saved.CheckInMillis = 15

	got, _ := s.Get(context.Background(), saved.ID)
	if *got.CheckInMillis != 10 {
		t.Fatal("caller mutation leaked into the store")
	}
}
