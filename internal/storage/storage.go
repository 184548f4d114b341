// Package storage defines the Repository contract that any database
// backend must satisfy to work with this application, and the Storage
// bundle that hands one repository per entity to the HTTP layer.
//
// Handlers (HTTP layer) should not know or care which database they are
// talking to: the sqlite and postgres packages both produce a *Storage
// backed by the same generic SQL repository.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/aanand-mishra/employee-api/internal/types"
)

var (
	// ErrNotFound is returned when no row matches the requested id.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidReference is returned when a save violates a foreign key,
	// i.e. the entity points at a parent that does not exist.
	ErrInvalidReference = errors.New("referenced entity does not exist")

	// ErrInvalidQuery is returned for a sort field the repository does
	// not know or a negative limit/offset.
	ErrInvalidQuery = errors.New("invalid query")
)

// Direction of an Order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order sorts a listing by one field. Field is the JSON field name; the
// repository maps it to a column and rejects unknown names.
type Order struct {
	Field     string
	Direction Direction
}

// Query narrows a listing. The zero value lists every row in id order.
type Query struct {
	Sort []Order

	// Limit bounds the number of rows; zero means unbounded.
	Limit  int
	Offset int

	// Eager loads to-many relationships (Job tasks) for every row.
	Eager bool
}

// Repository is the per-entity persistence contract.
type Repository[T any] interface {
	// Save inserts the entity when its ID is zero and returns it with the
	// generated ID, otherwise it replaces the stored row with that ID.
	Save(ctx context.Context, entity T) (T, error)

	// FindByID returns ErrNotFound when the row does not exist.
	FindByID(ctx context.Context, id int64) (T, error)

	ExistsByID(ctx context.Context, id int64) (bool, error)

	// FindAll returns an empty slice (not nil) when nothing matches.
	FindAll(ctx context.Context, q Query) ([]T, error)

	// Stream calls fn once per row, in order, without buffering the
	// whole result. It stops at the first error returned by fn.
	Stream(ctx context.Context, q Query, fn func(T) error) error

	Count(ctx context.Context) (int64, error)

	// DeleteByID succeeds even when the row does not exist.
	DeleteByID(ctx context.Context, id int64) error

	DeleteAll(ctx context.Context) error

	// SortFields lists the field names accepted in Query.Sort.
	SortFields() []string
}

// Storage bundles one repository per entity.
type Storage struct {
	Regions      Repository[types.Region]
	Countries    Repository[types.Country]
	Locations    Repository[types.Location]
	Departments  Repository[types.Department]
	Tasks        Repository[types.Task]
	Jobs         Repository[types.Job]
	JobHistories Repository[types.JobHistory]

	// Ping reports whether the database is reachable.
	Ping func(ctx context.Context) error

	Closer io.Closer
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	if s.Closer == nil {
		return nil
	}
	return s.Closer.Close()
}
