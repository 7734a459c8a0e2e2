package repository

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassify_UniqueViolationIsPerRecord(t *testing.T) {
	err := classify("insert", &pq.Error{Code: "23505", Message: "duplicate key"})
	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.NotErrorIs(t, err, ErrFatalStore)
}

func TestClassify_ForeignKeyViolationIsPerRecord(t *testing.T) {
	err := classify("insert", &pq.Error{Code: "23503", Message: "fk violation"})
	assert.ErrorIs(t, err, ErrConstraintViolation)
}

func TestClassify_DataExceptionIsPerRecord(t *testing.T) {
	// 22007 invalid_datetime_format: one row carrying a value the column
	// type cannot hold must not abort the whole run.
	err := classify("insert", &pq.Error{Code: "22007", Message: "invalid input syntax for type date"})
	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.NotErrorIs(t, err, ErrFatalStore)
}

func TestClassify_ConnectionErrorIsFatal(t *testing.T) {
	err := classify("insert", errors.New("driver: bad connection"))
	assert.ErrorIs(t, err, ErrFatalStore)
	assert.NotErrorIs(t, err, ErrConstraintViolation)
}

func TestClassify_ServerShutdownIsFatal(t *testing.T) {
	// 57P01 admin_shutdown: the store itself is going away.
	err := classify("insert", &pq.Error{Code: "57P01", Message: "terminating connection"})
	assert.ErrorIs(t, err, ErrFatalStore)
}
