package cleanup

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

type fakeExecutor struct {
	execFn  func(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	queries []string
}

func (f *fakeExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.queries = append(f.queries, query)
	return f.execFn(ctx, query, args...)
}

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunDeletesExpiredSessions(t *testing.T) {
	exec := &fakeExecutor{
		execFn: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			return fakeResult{rows: 7}, nil
		},
	}
	job := NewSessionCleanupJob(exec, discardLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(exec.queries) != 1 {
		t.Fatalf("queries = %d, want 1", len(exec.queries))
	}
	if !strings.Contains(exec.queries[0], "DELETE FROM sessions") {
		t.Errorf("query = %q", exec.queries[0])
	}
	if !strings.Contains(exec.queries[0], "expires_at <= now()") {
		t.Errorf("query must filter on expiry: %q", exec.queries[0])
	}
}

func TestRunNothingToDelete(t *testing.T) {
	exec := &fakeExecutor{
		execFn: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			return fakeResult{rows: 0}, nil
		},
	}
	job := NewSessionCleanupJob(exec, discardLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Errorf("an empty delete must not be an error: %v", err)
	}
}

func TestRunExecFailure(t *testing.T) {
	exec := &fakeExecutor{
		execFn: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			return nil, errors.New("connection refused")
		},
	}
	job := NewSessionCleanupJob(exec, discardLogger())

	if err := job.Run(context.Background()); err == nil {
		t.Error("expected an error")
	}
}
