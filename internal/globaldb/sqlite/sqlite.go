package sqlite

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens an SQLite database file with foreign keys enforced.
// The pool is pinned to one connection so that connection scoped PRAGMAs stick and
// writes never interleave.
func New(dbname string) (*gorm.DB, error) {
	return open(fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=5000", dbname), 1)
}

// NewReadOnly opens an existing SQLite database file that may not be written to.
// Readers do not conflict, so up to readers connections are kept.
func NewReadOnly(dbname string, readers int) (*gorm.DB, error) {
	return open(fmt.Sprintf("file:%s?mode=ro", dbname), readers)
}

func open(dsn string, conns int) (*gorm.DB, error) {
	dbCon, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := dbCon.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(conns)
	sqlDB.SetMaxIdleConns(conns)

	return dbCon, nil
}

// Close releases the underlying connection pool.
func Close(dbCon *gorm.DB) error {
	sqlDB, err := dbCon.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
