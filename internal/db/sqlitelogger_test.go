package db

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"testing"
)

// captureHandler records log records for assertion in tests.
type captureHandler struct {
	mu    sync.Mutex
	attrs []map[string]slog.Value
}

func (h *captureHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := make(map[string]slog.Value)
	m["msg"] = slog.StringValue(r.Message)
	m["level"] = slog.StringValue(r.Level.String())
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value
		return true
	})
	h.attrs = append(h.attrs, m)
	return nil
}

func (h *captureHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(_ string) slog.Handler { return h }

func (h *captureHandler) sqlRecords() []map[string]slog.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []map[string]slog.Value
	for _, m := range h.attrs {
		if m["msg"].String() == "sql" {
			out = append(out, m)
		}
	}
	return out
}

func (h *captureHandler) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attrs = nil
}

func openLogged(t *testing.T, handler *captureHandler) *sql.DB {
	t.Helper()
	connector, err := NewLoggingConnector(":memory:", slog.New(handler))
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	conn := sql.OpenDB(connector)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestNewLoggingConnector_nilLoggerUsesDefault(t *testing.T) {
	conn, err := NewLoggingConnector(":memory:", nil)
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	lc := conn.(*loggingConnector)
	if lc.logger != slog.Default() {
		t.Error("logger is not slog.Default()")
	}
}

func TestNewLoggingConnector_emptyDSN(t *testing.T) {
	if _, err := NewLoggingConnector("", nil); err == nil {
		t.Fatal("NewLoggingConnector(\"\") error = nil; want non-nil")
	}
}

func TestLoggingDriver_OpenRefused(t *testing.T) {
	if _, err := (&loggingDriver{}).Open(":memory:"); err == nil {
		t.Fatal("loggingDriver.Open error = nil; want non-nil")
	}
}

func TestLoggingConnector_ExecAndQueryLogged(t *testing.T) {
	handler := &captureHandler{}
	conn := openLogged(t, handler)

	if _, err := conn.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	recs := handler.sqlRecords()
	if len(recs) == 0 {
		t.Fatal("expected at least one sql log record for Exec")
	}
	got := recs[len(recs)-1]
	if got["op"].String() != "exec" {
		t.Errorf("op: got %q, want exec", got["op"].String())
	}
	if got["sql"].String() != `CREATE TABLE t (id INTEGER PRIMARY KEY)` {
		t.Errorf("sql: got %q", got["sql"].String())
	}
	if got["level"].String() != slog.LevelDebug.String() {
		t.Errorf("level: got %q, want DEBUG", got["level"].String())
	}
	if _, ok := got["elapsed_ms"]; !ok {
		t.Error("expected elapsed_ms attribute")
	}

	handler.reset()
	var one int
	if err := conn.QueryRow(`SELECT 1`).Scan(&one); err != nil {
		t.Fatalf("query row: %v", err)
	}
	recs = handler.sqlRecords()
	if len(recs) == 0 {
		t.Fatal("expected sql log record for QueryRow")
	}
	got = recs[len(recs)-1]
	if got["op"].String() != "query" {
		t.Errorf("op: got %q, want query", got["op"].String())
	}
	if got["sql"].String() != `SELECT 1` {
		t.Errorf("sql: got %q", got["sql"].String())
	}
}

func TestLoggingConnector_ArgsLogged(t *testing.T) {
	handler := &captureHandler{}
	conn := openLogged(t, handler)

	if _, err := conn.Exec(`CREATE TABLE t (id INTEGER, name TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	handler.reset()

	rows, err := conn.Query(`SELECT id FROM t WHERE name = ? OR name = ?`, "alice", nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	_ = rows.Close()

	recs := handler.sqlRecords()
	if len(recs) == 0 {
		t.Fatal("expected sql log for Query with args")
	}
	args, ok := recs[len(recs)-1]["args"].Any().([]string)
	if !ok {
		t.Fatalf("args attribute has type %T; want []string", recs[len(recs)-1]["args"].Any())
	}
	if len(args) != 2 || args[0] != "alice" || args[1] != "NULL" {
		t.Errorf("args = %v; want [alice NULL]", args)
	}
}

func TestLoggingConnector_FailedQueryLogsError(t *testing.T) {
	handler := &captureHandler{}
	conn := openLogged(t, handler)

	if _, err := conn.Exec(`CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	handler.reset()

	if _, err := conn.Exec(`INSERT INTO t (id) VALUES (?)`, 1); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := conn.Exec(`INSERT INTO missing (id) VALUES (1)`); err == nil {
		t.Fatal("insert into missing table succeeded")
	}
	// Preparing a statement against a missing table fails before execution,
	// so only the successful insert is logged.
	recs := handler.sqlRecords()
	if len(recs) != 1 {
		t.Fatalf("sql records = %d; want 1", len(recs))
	}
	if _, hasErr := recs[0]["error"]; hasErr {
		t.Error("successful insert logged with error attribute")
	}
}

func TestLoggingConnector_PingSucceeds(t *testing.T) {
	conn := openLogged(t, &captureHandler{})
	if err := conn.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestFormatArg(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{in: nil, want: "NULL"},
		{in: []byte("raw"), want: "raw"},
		{in: int64(42), want: "42"},
		{in: 1.5, want: "1.5"},
		{in: "2016-08-23", want: "2016-08-23"},
	}
	for _, tt := range tests {
		if got := formatArg(tt.in); got != tt.want {
			t.Errorf("formatArg(%v) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
