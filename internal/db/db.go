package db

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

func InitDB(driver, dbURL string) (*sql.DB, error) {
	if driver != DriverSQLite && driver != DriverMySQL {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	return db, nil
}

func RunMigrations(db *sql.DB, driver string) error {
	var queries []string
	switch driver {
	case DriverMySQL:
		queries = []string{
			`CREATE TABLE IF NOT EXISTS session_kv (
				namespace VARCHAR(64) NOT NULL,
				` + "`key`" + ` VARCHAR(64) NOT NULL,
				value TEXT NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				PRIMARY KEY (namespace, ` + "`key`" + `)
			);`,
		}
	case DriverSQLite:
		queries = []string{
			`CREATE TABLE IF NOT EXISTS session_kv (
				namespace TEXT NOT NULL,
				key TEXT NOT NULL,
				value TEXT NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (namespace, key)
			);`,
		}
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
