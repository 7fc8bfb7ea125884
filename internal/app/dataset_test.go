package app

import (
	"database/sql"

	"climate-api/internal/testdb"
)

func writeSample(path string) error {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	if err := testdb.Load(conn, testdb.Schema, testdb.Sample); err != nil {
		_ = conn.Close()
		return err
	}
	return conn.Close()
}
