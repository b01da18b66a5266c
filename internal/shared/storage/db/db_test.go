package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	prev := openDB
	openDB = func(driverName, dsn string) (*sql.DB, error) {
		if driverName != "pgx" {
			t.Fatalf("expected pgx driver, got %q", driverName)
		}
		return mockDB, nil
	}
	t.Cleanup(func() {
		openDB = prev
		mockDB.Close()
	})
	return mock
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	opts := OptionsFromEnv(DefaultServerOptions())
	want := Options{
		MaxOpenConns:    7,
		MaxIdleConns:    3,
		ConnMaxLifetime: 20 * time.Minute,
		ConnMaxIdleTime: 45 * time.Second,
		PingTimeout:     time.Second,
	}
	if opts != want {
		t.Fatalf("expected %+v, got %+v", want, opts)
	}
}

func TestOptionsFromEnvKeepsUnsetDefaults(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "4")
	opts := OptionsFromEnv(DefaultMigrateOptions())
	if opts.MaxOpenConns != 4 || opts.MaxIdleConns != 1 || opts.ConnMaxLifetime != time.Hour {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestOptionsFromEnvInvalidFallsBack(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	if opts := OptionsFromEnv(DefaultServerOptions()); opts != DefaultServerOptions() {
		t.Fatalf("expected defaults, got %+v", opts)
	}
}

func TestConnectAppliesPool(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectPing()

	db, err := Connect(context.Background(), "postgres://x", Options{MaxOpenConns: 7})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := db.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConnectSurfacesPingError(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	if _, err := Connect(context.Background(), "postgres://x", DefaultServerOptions()); err == nil {
		t.Fatal("expected ping error")
	}
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", DefaultServerOptions()); err == nil {
		t.Fatal("expected error for empty DATABASE_URL")
	}
}

func TestConnectSurfacesOpenError(t *testing.T) {
	prev := openDB
	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("bad driver") }
	defer func() { openDB = prev }()

	if _, err := Connect(context.Background(), "postgres://x", DefaultServerOptions()); err == nil {
		t.Fatal("expected open error")
	}
}
