package option

import (
	"strings"

	"gorm.io/gorm"
)

// QueryOption decorates a gorm statement.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryFunc func(db *gorm.DB) *gorm.DB

func (f queryFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// QuerySortBy is a validated ORDER BY clause.
type QuerySortBy struct {
	Column string
	Desc   bool
}

// WithQuerySortBy validates a user-supplied column against allowed and falls
// back to created_at. orderBy accepts "asc" or "desc".
func WithQuerySortBy(sortBy, orderBy string, allowed map[string]bool) QuerySortBy {
	column := strings.ToLower(strings.TrimSpace(sortBy))
	if !allowed[column] {
		column = "created_at"
	}
	return QuerySortBy{
		Column: column,
		Desc:   strings.EqualFold(strings.TrimSpace(orderBy), "desc"),
	}
}

func WithSortBy(sort QuerySortBy) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if sort.Column == "" {
			return db
		}
		dir := " ASC"
		if sort.Desc {
			dir = " DESC"
		}
		return db.Order(sort.Column + dir).Order("id" + dir)
	})
}

func WithLimit(limit int) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

// WithWhere adds a raw condition, e.g. a keyset cursor.
func WithWhere(query string, args ...any) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}
