package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsForeignKeyViolation(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503", Message: "insert or update violates foreign key constraint"}
	unique := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}

	assert.True(t, isForeignKeyViolation(fk))
	assert.True(t, isForeignKeyViolation(fmt.Errorf("save country: %w", fk)))
	assert.False(t, isForeignKeyViolation(unique))
	assert.False(t, isForeignKeyViolation(errors.New("connection refused")))
	assert.False(t, isForeignKeyViolation(nil))
}

func TestDialect(t *testing.T) {
	assert.Equal(t, "postgres", Dialect.Goose)
	assert.True(t, Dialect.Numbered)
}
