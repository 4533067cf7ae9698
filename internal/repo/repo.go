// Package repo holds the typed persistence operations. Every method runs
// against the *gorm.DB it was constructed with, so callers control
// transaction scope by passing a transaction handle.
package repo

import (
	"errors"

	"gorm.io/gorm"
)

// optional converts gorm's not-found error into a nil record.
func optional[T any](record *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// whereNullable matches a natural-key column where a nil pointer means the
// column must be NULL.
func whereNullable[T any](query *gorm.DB, column string, value *T) *gorm.DB {
	if value == nil {
		return query.Where(column + " IS NULL")
	}
	return query.Where(column+" = ?", *value)
}

// whereOptional applies an equality filter only when the value is present;
// nil means "no filter".
func whereOptional[T any](query *gorm.DB, column string, value *T) *gorm.DB {
	if value == nil {
		return query
	}
	return query.Where(column+" = ?", *value)
}
