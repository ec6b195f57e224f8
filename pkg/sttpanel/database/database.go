package database

import (
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect initializes the database connection. Postgres DSNs are
// detected by scheme or key=value form; anything else is treated as a
// SQLite file path.
func Connect(dsn string) error {
	var err error
	DB, err = gorm.Open(open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}
	return nil
}

func open(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

// GetDB returns the database instance.
func GetDB() *gorm.DB {
	return DB
}
