package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// SchemaVersion identifies the dataset layout the queries are written against.
// Bump it together with Schema.
const SchemaVersion = 1

// Table lists the columns a query relies on. Extra columns in the dataset are
// allowed. TextColumns must be declared with TEXT affinity: go-sqlite3 turns
// DATE, DATETIME and TIMESTAMP columns into time.Time, and the queries scan
// them as strings.
type Table struct {
	Name        string
	Columns     []string
	TextColumns []string
}

var Schema = []Table{
	{
		Name:        "measurements",
		Columns:     []string{"station", "date", "prcp", "tobs"},
		TextColumns: []string{"station", "date"},
	},
	{
		Name:        "station",
		Columns:     []string{"station", "name"},
		TextColumns: []string{"station", "name"},
	},
}

// VerifySchema checks every table in Schema against the live dataset and
// returns a *SchemaMismatchError for the first table that does not match.
func VerifySchema(ctx context.Context, db *sql.DB) error {
	for _, table := range Schema {
		present, err := tableColumns(ctx, db, table.Name)
		if err != nil {
			return fmt.Errorf("inspect table %s: %w", table.Name, err)
		}
		if len(present) == 0 {
			return &SchemaMismatchError{Version: SchemaVersion, Table: table.Name, MissingTable: true}
		}
		var missing []string
		for _, col := range table.Columns {
			if _, ok := present[col]; !ok {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			return &SchemaMismatchError{Version: SchemaVersion, Table: table.Name, MissingColumns: missing}
		}
		var wrongTypes []string
		for _, col := range table.TextColumns {
			if declared := present[col]; !hasTextAffinity(declared) {
				wrongTypes = append(wrongTypes, fmt.Sprintf("%s %s", col, declared))
			}
		}
		if len(wrongTypes) > 0 {
			return &SchemaMismatchError{Version: SchemaVersion, Table: table.Name, WrongTypes: wrongTypes}
		}
	}
	slog.Debug("schema verified", "version", SchemaVersion, "tables", len(Schema))
	return nil
}

// hasTextAffinity follows SQLite's affinity rules for a declared column type.
// An undeclared type stores text as text and is accepted too.
func hasTextAffinity(declared string) bool {
	t := strings.ToUpper(strings.TrimSpace(declared))
	if t == "" {
		return true
	}
	if strings.Contains(t, "INT") {
		return false
	}
	return strings.Contains(t, "CHAR") || strings.Contains(t, "CLOB") || strings.Contains(t, "TEXT")
}

// tableColumns maps column name to declared type.
func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, type FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close table_info rows", "table", table, "error", err)
		}
	}()
	out := make(map[string]string)
	for rows.Next() {
		var name, declared string
		if err := rows.Scan(&name, &declared); err != nil {
			return nil, err
		}
		out[name] = declared
	}
	return out, rows.Err()
}
