package helpers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// WrapTxAndCommit runs fn inside tx when one is given. Otherwise it opens a
// transaction on db, commits it when fn succeeds and rolls it back when fn
// fails or panics.
func WrapTxAndCommit[T any](fn func(*gorm.DB) (T, error), db *gorm.DB, tx *gorm.DB) (res T, err error) {
	if tx != nil {
		return fn(tx)
	}

	tx = db.Begin()
	if tx.Error != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	res, err = fn(tx)
	if err != nil {
		tx.Rollback()
		return res, err
	}
	if cerr := tx.Commit().Error; cerr != nil {
		return res, fmt.Errorf("failed to commit transaction: %w", cerr)
	}
	return res, nil
}

const uniqueViolation = "23505"

// IsDuplicateKeyError reports a unique constraint violation from either the
// pgx driver used by gorm or lib/pq.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}
