package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect captures what differs between the supported databases.
type Dialect struct {
	// Goose is the dialect name passed to goose.SetDialect and the
	// directory holding that dialect's migrations.
	Goose string

	// Numbered placeholders ($1, $2, ...) instead of "?".
	Numbered bool

	// IsForeignKeyViolation classifies a driver error.
	IsForeignKeyViolation func(err error) bool
}

func (d Dialect) placeholder(n int) string {
	if d.Numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// placeholders returns "p1, p2, ..., pn" starting at from.
func (d Dialect) placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.placeholder(from + i)
	}
	return strings.Join(parts, ", ")
}

func (d Dialect) foreignKeyViolation(err error) bool {
	return err != nil && d.IsForeignKeyViolation != nil && d.IsForeignKeyViolation(err)
}
