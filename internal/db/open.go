package db

import (
	"time" // Connection lifetimes

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
	"gorm.io/gorm/logger"  // GORM logging
)

// ConnMaxLifetime bounds how long a pooled connection is reused
const ConnMaxLifetime = 30 * time.Minute

// Open connects to MySQL and sizes the connection pool
func Open(dsn string, maxOpen, maxIdle int, verbose bool) (*gorm.DB, error) {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	g, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := g.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(ConnMaxLifetime)
	return g, nil
}
