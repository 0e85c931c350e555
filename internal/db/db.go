package db

import (
	"context" // Context for query cancellation
	"fmt"     // Error wrapping
	"time"    // Health timestamps

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// DB is the data-access helper shared by every repository. It wraps a pooled
// *gorm.DB; inside Transaction it wraps the transaction handle instead, so the
// same helpers run against either.
type DB struct {
	gorm *gorm.DB
}

// New wraps a GORM connection
func New(g *gorm.DB) *DB {
	return &DB{gorm: g}
}

// Query runs a SELECT and scans every row into dest, which must be a pointer to a slice
func (d *DB) Query(ctx context.Context, dest any, sql string, args ...any) error {
	if err := d.gorm.WithContext(ctx).Raw(sql, args...).Scan(dest).Error; err != nil {
		logQueryError("query failed", sql, args, err)
		return err
	}
	return nil
}

// GetOne runs a SELECT and scans the first row into dest. found is false when no row matched.
func (d *DB) GetOne(ctx context.Context, dest any, sql string, args ...any) (bool, error) {
	res := d.gorm.WithContext(ctx).Raw(sql, args...).Scan(dest)
	if res.Error != nil {
		logQueryError("single row fetch failed", sql, args, res.Error)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Insert executes an INSERT and returns the generated id
func (d *DB) Insert(ctx context.Context, sql string, args ...any) (int64, error) {
	result, err := d.gorm.Statement.ConnPool.ExecContext(ctx, sql, args...)
	if err != nil {
		logQueryError("insert failed", sql, args, err)
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read insert id: %w", err)
	}
	return id, nil
}

// Update executes an UPDATE and returns the number of affected rows
func (d *DB) Update(ctx context.Context, sql string, args ...any) (int64, error) {
	return d.exec(ctx, "update failed", sql, args)
}

// Delete executes a DELETE and returns the number of affected rows
func (d *DB) Delete(ctx context.Context, sql string, args ...any) (int64, error) {
	return d.exec(ctx, "delete failed", sql, args)
}

func (d *DB) exec(ctx context.Context, msg, sql string, args []any) (int64, error) {
	result, err := d.gorm.Statement.ConnPool.ExecContext(ctx, sql, args...)
	if err != nil {
		logQueryError(msg, sql, args, err)
		return 0, err
	}
	return result.RowsAffected()
}

// Transaction runs fn inside BEGIN/COMMIT. Any error returned by fn, or a panic,
// rolls the transaction back; the connection always goes back to the pool.
func (d *DB) Transaction(ctx context.Context, fn func(tx *DB) error) error {
	err := d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DB{gorm: tx})
	})
	if err != nil {
		logrus.WithError(err).Error("Transaction rolled back")
	}
	return err
}

// Exists reports whether table has a row matching every condition
func (d *DB) Exists(ctx context.Context, table string, conditions map[string]any) (bool, error) {
	where, args := BuildWhere(conditions)
	var one int
	return d.GetOne(ctx, &one, "SELECT 1 FROM "+table+" "+where, args...)
}

// TableCount returns the number of rows in table
func (d *DB) TableCount(ctx context.Context, table string) (int64, error) {
	var total int64
	_, err := d.GetOne(ctx, &total, "SELECT COUNT(*) AS total FROM "+table)
	return total, err
}

// Ping checks the database is reachable
func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// PoolHealth is reported by the health endpoint
type PoolHealth struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Open      int    `json:"open,omitempty"`
	Idle      int    `json:"idle,omitempty"`
	InUse     int    `json:"in_use,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Health pings the database and reports connection pool usage
func (d *DB) Health(ctx context.Context) PoolHealth {
	h := PoolHealth{Status: "healthy", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	sqlDB, err := d.gorm.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		h.Status = "unhealthy"
		h.Error = err.Error()
		return h
	}
	stats := sqlDB.Stats()
	h.Open, h.Idle, h.InUse = stats.OpenConnections, stats.Idle, stats.InUse
	return h
}

func logQueryError(msg, sql string, args []any, err error) {
	logrus.WithFields(logrus.Fields{
		"sql":    sql,  // Failing statement
		"params": args, // Bound parameters
		"error":  err.Error(),
	}).Error(msg)
}
