package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// useMocks makes each Open call take the next sqlmock connection in order.
func useMocks(t *testing.T, n int) []sqlmock.Sqlmock {
	t.Helper()
	var conns []*sql.DB
	var mocks []sqlmock.Sqlmock
	for i := 0; i < n; i++ {
		conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			t.Fatalf("sqlmock: %v", err)
		}
		conns = append(conns, conn)
		mocks = append(mocks, mock)
	}
	prev := openDB
	openDB = func(driverName, dsn string) (*sql.DB, error) {
		if len(conns) == 0 {
			return nil, errors.New("no mock connection left")
		}
		next := conns[0]
		conns = conns[1:]
		return next, nil
	}
	t.Cleanup(func() { openDB = prev })
	return mocks
}

func resetShared() {
	sharedMu.Lock()
	shared = nil
	sharedMu.Unlock()
}

func TestPoolForRoleDefaults(t *testing.T) {
	if got := PoolFor(RoleLambda).MaxOpen; got != 2 {
		t.Fatalf("lambda MaxOpen = %d", got)
	}
	if got := PoolFor(RoleMigrate).MaxOpen; got != 1 {
		t.Fatalf("migrate MaxOpen = %d", got)
	}
	if got := PoolFor(Role("unknown")); got != pools[RoleService] {
		t.Fatalf("unknown role should fall back to service, got %+v", got)
	}
}

func TestPoolForEnvOverrides(t *testing.T) {
	t.Setenv("PA_DB_MAX_OPEN", "7")
	t.Setenv("PA_DB_MAX_IDLE", "3")
	t.Setenv("PA_DB_MAX_LIFETIME", "20m")
	t.Setenv("PA_DB_MAX_IDLE_TIME", "45s")
	t.Setenv("PA_DB_PING_TIMEOUT", "bogus")

	p := PoolFor(RoleService)
	want := Pool{MaxOpen: 7, MaxIdle: 3, MaxLifetime: 20 * time.Minute, MaxIdleTime: 45 * time.Second, PingTimeout: 5 * time.Second}
	if p != want {
		t.Fatalf("PoolFor = %+v, want %+v", p, want)
	}
}

func TestRuntimeRole(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	if RuntimeRole() != RoleService {
		t.Fatalf("expected service role outside lambda")
	}
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "picture-worker")
	if RuntimeRole() != RoleLambda {
		t.Fatalf("expected lambda role")
	}
}

func TestOpenAppliesPool(t *testing.T) {
	mock := useMocks(t, 1)[0]
	mock.ExpectPing()

	conn, err := Open(context.Background(), "postgres://test", Pool{MaxOpen: 7})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()
	if got := conn.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("MaxOpenConnections = %d", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestOpenPingFailure(t *testing.T) {
	mock := useMocks(t, 1)[0]
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	if _, err := Open(context.Background(), "postgres://test", PoolFor(RoleMigrate)); err == nil {
		t.Fatalf("expected ping error")
	}
}

func TestOpenRejectsEmptyURL(t *testing.T) {
	if _, err := Open(context.Background(), "  ", PoolFor(RoleMigrate)); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestSharedRetriesAfterFailureThenReuses(t *testing.T) {
	resetShared()
	t.Cleanup(resetShared)

	mocks := useMocks(t, 2)
	mocks[0].ExpectPing().WillReturnError(errors.New("cold start"))
	mocks[0].ExpectClose()
	mocks[1].ExpectPing()
	dsn := "postgres://test"

	if _, err := Shared(context.Background(), dsn, PoolFor(RoleLambda)); err == nil {
		t.Fatalf("expected first call to fail")
	}
	first, err := Shared(context.Background(), dsn, PoolFor(RoleLambda))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	again, err := Shared(context.Background(), dsn, PoolFor(RoleLambda))
	if err != nil {
		t.Fatalf("third call: %v", err)
	}
	if first != again {
		t.Fatalf("expected the same pool")
	}
}
