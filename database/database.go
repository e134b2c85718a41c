package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Kellerman81/go_table_editor/config"
	"github.com/Kellerman81/go_table_editor/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

var DB *sqlx.DB
var SQLDB *sql.DB

// ReadWriteMu serializes writes - sqlite allows a single writer.
var ReadWriteMu *sync.Mutex

func InitDb(dbpath string) error {
	if _, err := os.Stat(dbpath); os.IsNotExist(err) {
		os.MkdirAll(filepath.Dir(dbpath), 0777)
		if _, err := os.Create(dbpath); err != nil {
			return errors.Wrap(err, "create sqlite file")
		}
	}
	db, err := sqlx.Connect("sqlite3", "file:"+dbpath+"?_fk=1&_mutex=no&_cslike=0")
	if err != nil {
		return errors.Wrap(err, "connect sqlite")
	}
	db.SetMaxIdleConns(15)
	db.SetMaxOpenConns(5)
	ReadWriteMu = &sync.Mutex{}
	DB = db
	SQLDB = db.DB
	return nil
}

func dblogdebug(query string, args []interface{}) {
	if strings.EqualFold(config.ConfigGetGeneral().DBLogLevel, "debug") {
		logger.Log.Debug("query: ", query, " -args: ", args)
	}
}

// ExecSQL runs a write statement under the shared write lock.
func ExecSQL(query string, args ...interface{}) (sql.Result, error) {
	dblogdebug(query, args)
	ReadWriteMu.Lock()
	result, err := DB.Exec(query, args...)
	ReadWriteMu.Unlock()
	if err != nil {
		logger.Log.Error("Exec: ", query, " args: ", args, " error: ", err)
		return nil, errors.Wrap(err, "exec")
	}
	return result, nil
}

// QueryRows returns result rows as maps keyed by column name. Returns an
// empty (non-nil) slice when nothing matches.
func QueryRows(query string, args ...interface{}) ([]map[string]interface{}, error) {
	dblogdebug(query, args)
	rows, err := DB.Queryx(query, args...)
	if err != nil {
		logger.Log.Error("Query: ", query, " error: ", err)
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()
	result := make([]map[string]interface{}, 0, 10)
	for rows.Next() {
		item := make(map[string]interface{})
		if err := rows.MapScan(item); err != nil {
			logger.Log.Error("Scan: ", query, " error: ", err)
			return nil, errors.Wrap(err, "scan")
		}
		normalizeRow(item)
		result = append(result, item)
	}
	return result, nil
}

// QueryRowMap returns the first matching row or sql.ErrNoRows.
func QueryRowMap(query string, args ...interface{}) (map[string]interface{}, error) {
	rows, err := QueryRows(query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, sql.ErrNoRows
	}
	return rows[0], nil
}

func QueryCount(query string, args ...interface{}) (int, error) {
	dblogdebug(query, args)
	var counter int
	if err := DB.Get(&counter, query, args...); err != nil {
		logger.Log.Error("Query: ", query, " error: ", err)
		return 0, errors.Wrap(err, "count")
	}
	return counter, nil
}

// The sqlite driver hands text columns back as []byte through MapScan.
func normalizeRow(row map[string]interface{}) {
	for key, val := range row {
		if b, ok := val.([]byte); ok {
			row[key] = string(b)
		}
	}
}

type TableColumn struct {
	Name    string `db:"name"`
	Type    string `db:"type"`
	NotNull int    `db:"notnull"`
}

// TableColumns introspects a table via pragma_table_info.
func TableColumns(table string) ([]TableColumn, error) {
	var columns []TableColumn
	err := DB.Select(&columns, "SELECT name, type, `notnull` FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, errors.Wrap(err, "pragma_table_info")
	}
	return columns, nil
}
