package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// mockLockDB implements DBTX over an in-memory advisory lock table
type mockLockDB struct {
	locks map[int64]bool
}

func newMockLockDB() *mockLockDB {
	return &mockLockDB{locks: make(map[int64]bool)}
}

func (m *mockLockDB) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if len(args) > 0 {
		lockID := args[0].(int64)

		if query == "SELECT pg_try_advisory_lock($1)" {
			if m.locks[lockID] {
				return &mockRow{value: false}
			}
			m.locks[lockID] = true
			return &mockRow{value: true}
		}

		if query == "SELECT pg_advisory_unlock($1)" {
			wasHeld := m.locks[lockID]
			delete(m.locks, lockID)
			return &mockRow{value: wasHeld}
		}
	}

	return &mockRow{value: false}
}

func (m *mockLockDB) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockLockDB) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

// mockRow implements pgx.Row
type mockRow struct {
	value any
}

func (m *mockRow) Scan(dest ...any) error {
	if len(dest) > 0 {
		if v, ok := dest[0].(*bool); ok {
			*v = m.value.(bool)
		}
	}
	return nil
}

func TestLockManager(t *testing.T) {
	lockManager := NewPostgresLockManager(newMockLockDB())
	ctx := context.Background()

	acquired, err := lockManager.AcquireLock(ctx, 42)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if !acquired {
		t.Fatal("Expected to acquire free lock")
	}

	// same job is locked for a second caller
	acquired, err = lockManager.AcquireLock(ctx, 42)
	if err != nil {
		t.Fatalf("Second acquire errored: %v", err)
	}
	if acquired {
		t.Error("Expected second acquire of held lock to fail")
	}

	// a different job locks independently
	acquired, err = lockManager.AcquireLock(ctx, 43)
	if err != nil {
		t.Fatalf("Failed to acquire lock for other job: %v", err)
	}
	if !acquired {
		t.Error("Expected independent lock for different job id")
	}

	if err := lockManager.ReleaseLock(ctx, 42); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}

	// released lock is acquirable again
	acquired, err = lockManager.AcquireLock(ctx, 42)
	if err != nil {
		t.Fatalf("Reacquire errored: %v", err)
	}
	if !acquired {
		t.Error("Expected to reacquire released lock")
	}
}

func TestGenerateLockIDStable(t *testing.T) {
	lm := NewPostgresLockManager(newMockLockDB())

	a := lm.generateLockID(7)
	b := lm.generateLockID(7)
	if a != b {
		t.Errorf("lock id not stable: %d != %d", a, b)
	}
	if a < 0 {
		t.Errorf("lock id negative: %d", a)
	}
	if lm.generateLockID(8) == a {
		t.Error("different jobs produced identical lock ids")
	}
}
