package history_test

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

func bumpSchemaVersion(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec("UPDATE schema_version SET version = version + 1")
	return err
}
