package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type recordingExecutor struct {
	query string
	args  []any
}

func (r *recordingExecutor) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	r.query, r.args = query, args
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (r *recordingExecutor) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	r.query, r.args = query, args
	return errorRow{err: pgx.ErrNoRows}
}

func (r *recordingExecutor) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	r.query, r.args = query, args
	return nil, errors.New("not implemented")
}

func TestExtractMarker(t *testing.T) {
	cases := []struct {
		name    string
		query   string
		marker  string
		body    string
		wantErr bool
	}{
		{
			name:   "valid marker",
			query:  "--sql 0f8d7f4e-2a7c-4a36-9d6a-4c3b1b8e9a10\nselect 1;",
			marker: "0f8d7f4e-2a7c-4a36-9d6a-4c3b1b8e9a10",
			body:   "select 1;",
		},
		{
			name:   "leading whitespace",
			query:  "\n  --sql 0f8d7f4e-2a7c-4a36-9d6a-4c3b1b8e9a10\nselect 1;\n",
			marker: "0f8d7f4e-2a7c-4a36-9d6a-4c3b1b8e9a10",
			body:   "select 1;",
		},
		{name: "missing marker", query: "select 1;", wantErr: true},
		{name: "uppercase uuid", query: "--sql 0F8D7F4E-2A7C-4A36-9D6A-4C3B1B8E9A10\nselect 1;", wantErr: true},
		{name: "empty", query: "   ", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			marker, body, err := extractMarker(tc.query)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.query)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if marker != tc.marker || body != tc.body {
				t.Fatalf("got (%q, %q), want (%q, %q)", marker, body, tc.marker, tc.body)
			}
		})
	}
}

func TestSQLRunnerStripsMarker(t *testing.T) {
	exec := &recordingExecutor{}
	runner := NewSQLRunner(exec, zerolog.Nop())

	tag, err := runner.Exec(context.Background(), "--sql 0f8d7f4e-2a7c-4a36-9d6a-4c3b1b8e9a10\nupdate t set x = $1;", 5)
	if err != nil {
		t.Fatalf("Exec returned error: %v", err)
	}
	if tag.RowsAffected() != 1 {
		t.Fatalf("RowsAffected = %d, want 1", tag.RowsAffected())
	}
	if exec.query != "update t set x = $1;" {
		t.Fatalf("executor received %q", exec.query)
	}
	if len(exec.args) != 1 || exec.args[0] != 5 {
		t.Fatalf("executor args mismatch: %#v", exec.args)
	}
}

func TestSQLRunnerRejectsUnmarkedStatements(t *testing.T) {
	exec := &recordingExecutor{}
	runner := NewSQLRunner(exec, zerolog.Nop())

	if _, err := runner.Exec(context.Background(), "delete from t;"); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("expected ErrMissingMarker, got %v", err)
	}
	if exec.query != "" {
		t.Fatalf("unmarked statement reached the executor: %q", exec.query)
	}
	var v int
	if err := runner.QueryRow(context.Background(), "select 1;").Scan(&v); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("expected ErrMissingMarker from QueryRow, got %v", err)
	}
}

func TestSQLRunnerWithExecutor(t *testing.T) {
	first := &recordingExecutor{}
	second := &recordingExecutor{}
	runner := NewSQLRunner(first, zerolog.Nop()).WithExecutor(second)

	var v int
	err := runner.QueryRow(context.Background(), "--sql 0f8d7f4e-2a7c-4a36-9d6a-4c3b1b8e9a10\nselect 1;").Scan(&v)
	if !IsNoRows(err) {
		t.Fatalf("expected no rows, got %v", err)
	}
	if first.query != "" || second.query != "select 1;" {
		t.Fatalf("statement routed to wrong executor: first=%q second=%q", first.query, second.query)
	}
}

type failingExecutor struct {
	recordingExecutor
	err error
}

func (f *failingExecutor) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, f.err
}

func TestSQLRunnerErrorLevels(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		level string
	}{
		{"serialization failure", &pgconn.PgError{Code: pgerrcode.SerializationFailure}, "warn"},
		{"deadlock", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, "warn"},
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, "debug"},
		{"check violation", &pgconn.PgError{Code: pgerrcode.CheckViolation}, "debug"},
		{"canceled", context.Canceled, "debug"},
		{"undefined table", &pgconn.PgError{Code: pgerrcode.UndefinedTable}, "error"},
		{"connection", errors.New("conn closed"), "error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			runner := NewSQLRunner(&failingExecutor{err: tc.err}, zerolog.New(&buf).Level(zerolog.DebugLevel))

			if _, err := runner.Exec(context.Background(), "--sql 0f8d7f4e-2a7c-4a36-9d6a-4c3b1b8e9a10\nupdate t set x = 1;"); !errors.Is(err, tc.err) {
				t.Fatalf("Exec error = %v, want %v", err, tc.err)
			}
			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			var entry map[string]any
			if err := json.Unmarshal(lines[len(lines)-1], &entry); err != nil {
				t.Fatalf("decode log line: %v", err)
			}
			if entry["level"] != tc.level {
				t.Fatalf("level = %v, want %s", entry["level"], tc.level)
			}
		})
	}
}
