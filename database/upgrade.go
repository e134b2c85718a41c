package database

import (
	"log"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

var DBVersion string

func UpgradeDB(dbpath string) {
	m, err := migrate.New(
		"file://./schema/db",
		"sqlite3://"+dbpath+"?cache=shared&_fk=1&_mutex=no&_cslike=0",
	)
	if err != nil {
		log.Fatalf("migration failed... %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("An error occurred while syncing the database.. %v", err)
	}
	vers, _, _ := m.Version()
	DBVersion = strconv.Itoa(int(vers))
	m = nil
}
