package health

import (
	"context"
	"errors"
	"testing"
)

type pingStub struct{ err error }

func (p pingStub) PingContext(context.Context) error { return p.err }

func TestStatusMemory(t *testing.T) {
	st, err := NewService(nil).Status(context.Background())
	if err != nil || !st.OK || st.Store != "memory" {
		t.Fatalf("unexpected status %+v err=%v", st, err)
	}
}

func TestStatusDatabaseDown(t *testing.T) {
	svc := &Service{DB: pingStub{err: errors.New("refused")}}
	st, err := svc.Status(context.Background())
	if err == nil || st.OK || st.Store != "postgres" {
		t.Fatalf("unexpected status %+v err=%v", st, err)
	}
}

func TestStatusDatabaseUp(t *testing.T) {
	svc := &Service{DB: pingStub{}}
	st, err := svc.Status(context.Background())
	if err != nil || !st.OK {
		t.Fatalf("unexpected status %+v err=%v", st, err)
	}
}
