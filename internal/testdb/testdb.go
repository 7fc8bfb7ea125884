// Package testdb builds throwaway SQLite datasets for tests. Fixture files are
// embedded and named with a 4-digit prefix that fixes the order they load in:
// 0001_schema.sql, 0002_sample.sql.
package testdb

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed sql/*.sql
var sqlFS embed.FS

const fixturesDir = "sql"

// Fixture names, without the numeric prefix.
const (
	Schema = "schema"
	Sample = "sample"
)

var fixtureFileRe = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

type fixture struct {
	version string
	name    string
	body    string
}

// Open returns an in-memory database holding the dataset schema and nothing else.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	return open(t, Schema)
}

// OpenSample returns an in-memory database holding the schema and the sample rows.
func OpenSample(t testing.TB) *sql.DB {
	t.Helper()
	return open(t, Schema, Sample)
}

// OpenEmpty returns an in-memory database with no tables at all.
func OpenEmpty(t testing.TB) *sql.DB {
	t.Helper()
	return open(t)
}

// Exec runs statements against db and fails the test on error.
func Exec(t testing.TB, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// Load applies the named fixtures to db in version order.
func Load(db *sql.DB, names ...string) error {
	fixtures, err := readFixtures(names)
	if err != nil {
		return err
	}
	for _, f := range fixtures {
		if _, err := db.Exec(f.body); err != nil {
			return fmt.Errorf("apply %s_%s.sql: %w", f.version, f.name, err)
		}
	}
	return nil
}

// Script returns the concatenated SQL of the named fixtures, for loading with
// an external sqlite3 binary.
func Script(names ...string) (string, error) {
	fixtures, err := readFixtures(names)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, f := range fixtures {
		b.WriteString(f.body)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func open(t testing.TB, names ...string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	if err := Load(db, names...); err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	return db
}

func readFixtures(names []string) ([]fixture, error) {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	entries, err := fs.ReadDir(sqlFS, fixturesDir)
	if err != nil {
		return nil, fmt.Errorf("read fixtures dir: %w", err)
	}

	var out []fixture
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := fixtureFileRe.FindStringSubmatch(e.Name())
		if m == nil || !wanted[m[2]] {
			continue
		}
		body, err := fs.ReadFile(sqlFS, fixturesDir+"/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", e.Name(), err)
		}
		out = append(out, fixture{version: m[1], name: m[2], body: string(body)})
		delete(wanted, m[2])
	}
	for n := range wanted {
		return nil, fmt.Errorf("unknown fixture %q", n)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}
