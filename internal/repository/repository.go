// Package repository holds the MySQL queries of the storefront, written against the db helper.
package repository

import (
	"context" // Context for queries
	"errors"  // Sentinel errors
	"sort"    // Stable SET clauses
	"strings" // SQL assembly
	"time"    // Row timestamps

	"storefront/internal/db" // Data-access helper

	"github.com/go-sql-driver/mysql" // Server error codes
)

// mysqlDuplicateEntry is the server error for a unique key violation
const mysqlDuplicateEntry = 1062

// Errors shared by every repository
var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicate          = errors.New("record already exists")
	ErrCategoryInUse      = errors.New("category still has products")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrEmptyOrder         = errors.New("order has no items")
)

// IsDuplicateKey reports whether err is a MySQL unique key violation
func IsDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

// IsDuplicateKeyOn reports whether err is a unique key violation of the index on column.
// GORM names those indexes idx_<table>_<column>.
func IsDuplicateKeyOn(err error, column string) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) || myErr.Number != mysqlDuplicateEntry {
		return false
	}
	return strings.HasSuffix(strings.TrimSuffix(myErr.Message, "'"), "_"+column)
}

// Repositories groups every repository over one connection pool
type Repositories struct {
	Admins     *AdminRepo
	Categories *CategoryRepo
	Products   *ProductRepo
	Orders     *OrderRepo
	Customers  *CustomerRepo
	Settings   *SettingRepo
	Newsletter *NewsletterRepo
	Tokens     *ResetTokenRepo
	Activity   *ActivityRepo
	Pages      *PageRepo
	Stats      *StatsRepo
}

// New builds all repositories on d
func New(d *db.DB) *Repositories {
	orders := &OrderRepo{db: d}
	return &Repositories{
		Admins:     &AdminRepo{db: d},
		Categories: &CategoryRepo{db: d},
		Products:   &ProductRepo{db: d},
		Orders:     orders,
		Customers:  &CustomerRepo{db: d},
		Settings:   &SettingRepo{db: d},
		Newsletter: &NewsletterRepo{db: d},
		Tokens:     &ResetTokenRepo{db: d},
		Activity:   &ActivityRepo{db: d},
		Pages:      &PageRepo{db: d},
		Stats:      &StatsRepo{db: d, orders: orders},
	}
}

// now is the clock used for row timestamps
var now = func() time.Time { return time.Now().UTC() }

// filter accumulates AND-ed conditions
type filter struct {
	conds []string
	args  []any
}

func (f *filter) add(cond string, args ...any) {
	f.conds = append(f.conds, cond)
	f.args = append(f.args, args...)
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// setClause renders "a = ?, b = ?" for the columns of fields found in allowed, in sorted order
func setClause(fields map[string]any, allowed map[string]bool) (string, []any) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if allowed[col] {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)
	parts := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		parts[i] = col + " = ?"
		args[i] = fields[col]
	}
	return strings.Join(parts, ", "), args
}

// updateColumns runs UPDATE table SET <fields>, updated_at WHERE id = ?. Unknown columns are ignored.
// It returns ErrNotFound when no row has the id.
func updateColumns(ctx context.Context, d *db.DB, table string, id uint, fields map[string]any, allowed map[string]bool) error {
	set, args := setClause(fields, allowed)
	if set == "" {
		ok, err := d.Exists(ctx, table, map[string]any{"id": id})
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	}
	args = append(args, now(), id)
	n, err := d.Update(ctx, "UPDATE "+table+" SET "+set+", updated_at = ? WHERE id = ?", args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound // updated_at always changes, so zero rows means no such id
	}
	return nil
}
