package db

import (
	"context" // Context for query cancellation
	"math"    // Page cap
	"sort"    // Deterministic clause order
	"strconv" // Integer formatting
	"strings" // String building
)

// Pagination limits
const (
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit and page*limit from overflowing
	MaxPage = math.MaxInt / MaxLimit
)

// OrderBy is one ORDER BY term
type OrderBy struct {
	Column    string
	Direction string // ASC or DESC, anything else is dropped
}

// BuildWhere turns column=value conditions into a WHERE clause. Nil values are
// skipped and columns are emitted in sorted order so the SQL is stable.
func BuildWhere(conditions map[string]any) (string, []any) {
	if len(conditions) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(conditions))
	for k, v := range conditions {
		if v != nil {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", nil
	}
	sort.Strings(keys)
	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		clauses = append(clauses, k+" = ?")
		args = append(args, conditions[k])
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// BuildOrder renders an ORDER BY clause, ignoring terms with an unknown direction
func BuildOrder(terms []OrderBy) string {
	var clauses []string
	for _, t := range terms {
		dir := strings.ToUpper(strings.TrimSpace(t.Direction))
		if t.Column == "" || (dir != "ASC" && dir != "DESC") {
			continue
		}
		clauses = append(clauses, t.Column+" "+dir)
	}
	if len(clauses) == 0 {
		return ""
	}
	return "ORDER BY " + strings.Join(clauses, ", ")
}

// BuildLimit renders LIMIT/OFFSET; a non-positive limit yields no clause
func BuildLimit(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	sql := "LIMIT " + strconv.Itoa(limit)
	if offset > 0 {
		sql += " OFFSET " + strconv.Itoa(offset)
	}
	return sql
}

// SearchIn builds "(a LIKE ? OR b LIKE ?)" with one %term% argument per column
func SearchIn(term string, columns []string) (string, []any) {
	if term == "" || len(columns) == 0 {
		return "", nil
	}
	conds := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		conds[i] = c + " LIKE ?"
		args[i] = "%" + term + "%"
	}
	return "(" + strings.Join(conds, " OR ") + ")", args
}

// SortDirection normalises a user supplied direction, falling back to def
func SortDirection(raw, def string) string {
	switch strings.ToUpper(raw) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	}
	return def
}

// Pagination is the metadata returned with every paged list
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

// NormalizePage clamps page to 1..MaxPage and limit to 1..MaxLimit
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// NewPagination computes page metadata; pages = ceil(total/limit)
func NewPagination(page, limit int, total int64) Pagination {
	page, limit = NormalizePage(page, limit)
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   pages,
		HasNext: int64(page*limit) < total,
		HasPrev: page > 1,
	}
}

// Paginate runs sql with LIMIT/OFFSET into dest and counts the full result set.
// A page past the end scans no rows but still returns consistent metadata.
func (d *DB) Paginate(ctx context.Context, dest any, sql string, args []any, page, limit int) (Pagination, error) {
	page, limit = NormalizePage(page, limit)
	offset := (page - 1) * limit

	if err := d.Query(ctx, dest, sql+" "+BuildLimit(limit, offset), args...); err != nil {
		return Pagination{}, err
	}
	var total int64
	if _, err := d.GetOne(ctx, &total, "SELECT COUNT(*) AS total FROM ("+sql+") AS count_table", args...); err != nil {
		return Pagination{}, err
	}
	return NewPagination(page, limit, total), nil
}
