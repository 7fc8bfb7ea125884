package db

import (
	"fmt"
	"strings"
)

// ConnectionError reports that the dataset could not be opened or reached.
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to dataset %q: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SchemaMismatchError reports a dataset whose tables do not match Schema.
type SchemaMismatchError struct {
	Version        int
	Table          string
	MissingTable   bool
	MissingColumns []string
	WrongTypes     []string
}

func (e *SchemaMismatchError) Error() string {
	if e.MissingTable {
		return fmt.Sprintf("schema v%d mismatch: table %q not found", e.Version, e.Table)
	}
	if len(e.WrongTypes) > 0 {
		return fmt.Sprintf("schema v%d mismatch: table %q columns need TEXT type: %s",
			e.Version, e.Table, strings.Join(e.WrongTypes, ", "))
	}
	return fmt.Sprintf("schema v%d mismatch: table %q missing columns %s",
		e.Version, e.Table, strings.Join(e.MissingColumns, ", "))
}
