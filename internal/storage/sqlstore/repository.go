// Package sqlstore implements storage.Repository for any entity over
// database/sql. Each entity describes its table once (a Table value) and
// the generic Repository builds every statement from that description,
// so SQLite and PostgreSQL share one code path that differs only in the
// Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aanand-mishra/employee-api/internal/storage"
)

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Table maps an entity type onto a table.
type Table[T any] struct {
	Name string

	// Columns lists every column except id, in the order Values binds them
	// and Scan reads them (Scan reads id first).
	Columns []string

	// Fields maps sortable JSON field names to columns. "id" is implicit.
	Fields map[string]string

	ID     func(*T) *int64
	Values func(T) []any
	Scan   func(Scanner) (T, error)
}

// Repository is the generic SQL repository.
type Repository[T any] struct {
	db      *sql.DB
	dialect Dialect
	table   Table[T]
}

var _ storage.Repository[struct{}] = (*Repository[struct{}])(nil)

// NewRepository returns a repository for table over db.
func NewRepository[T any](db *sql.DB, dialect Dialect, table Table[T]) *Repository[T] {
	return &Repository[T]{db: db, dialect: dialect, table: table}
}

func (r *Repository[T]) selectColumns() string {
	return "id, " + strings.Join(r.table.Columns, ", ")
}

// Save inserts or replaces entity.
func (r *Repository[T]) Save(ctx context.Context, entity T) (T, error) {
	return r.save(ctx, r.db, entity)
}

func (r *Repository[T]) save(ctx context.Context, q querier, entity T) (T, error) {
	id := r.table.ID(&entity)
	values := r.table.Values(entity)

	if *id == 0 {
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
			r.table.Name,
			strings.Join(r.table.Columns, ", "),
			r.dialect.placeholders(1, len(r.table.Columns)),
		)

		var newID int64
		if err := q.QueryRowContext(ctx, query, values...).Scan(&newID); err != nil {
			return entity, r.wrap("insert", err)
		}
		*id = newID
		return entity, nil
	}

	sets := make([]string, len(r.table.Columns))
	for i, column := range r.table.Columns {
		sets[i] = column + " = " + r.dialect.placeholder(i+1)
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s",
		r.table.Name,
		strings.Join(sets, ", "),
		r.dialect.placeholder(len(r.table.Columns)+1),
	)

	result, err := q.ExecContext(ctx, query, append(values, *id)...)
	if err != nil {
		return entity, r.wrap("update", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return entity, r.wrap("update: rows affected", err)
	}
	if affected == 0 {
		return entity, fmt.Errorf("%s update %d: %w", r.table.Name, *id, storage.ErrNotFound)
	}

	return entity, nil
}

// FindByID fetches exactly one row matched by primary key.
func (r *Repository[T]) FindByID(ctx context.Context, id int64) (T, error) {
	return r.findByID(ctx, r.db, id)
}

func (r *Repository[T]) findByID(ctx context.Context, q querier, id int64) (T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = %s",
		r.selectColumns(), r.table.Name, r.dialect.placeholder(1))

	entity, err := r.table.Scan(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return entity, fmt.Errorf("%s %d: %w", r.table.Name, id, storage.ErrNotFound)
	}
	if err != nil {
		return entity, r.wrap("find by id", err)
	}

	return entity, nil
}

func (r *Repository[T]) ExistsByID(ctx context.Context, id int64) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = %s)",
		r.table.Name, r.dialect.placeholder(1))

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, r.wrap("exists", err)
	}

	return exists, nil
}

// FindAll collects Stream into a slice.
func (r *Repository[T]) FindAll(ctx context.Context, q storage.Query) ([]T, error) {
	entities := make([]T, 0)

	err := r.Stream(ctx, q, func(entity T) error {
		entities = append(entities, entity)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entities, nil
}

func (r *Repository[T]) Stream(ctx context.Context, q storage.Query, fn func(T) error) error {
	query, args, err := r.listQuery(q)
	if err != nil {
		return err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return r.wrap("list", err)
	}
	defer rows.Close()

	for rows.Next() {
		entity, err := r.table.Scan(rows)
		if err != nil {
			return r.wrap("list: scan row", err)
		}
		if err := fn(entity); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return r.wrap("list: rows iteration", err)
	}

	return nil
}

// listQuery builds SELECT ... ORDER BY ... LIMIT ... for q. Sorting always
// ends with id so pages are stable.
func (r *Repository[T]) listQuery(q storage.Query) (string, []any, error) {
	if q.Limit < 0 || q.Offset < 0 {
		return "", nil, fmt.Errorf("%s: negative limit or offset: %w", r.table.Name, storage.ErrInvalidQuery)
	}

	var (
		orders []string
		hasID  bool
	)
	for _, o := range q.Sort {
		column, ok := r.column(o.Field)
		if !ok {
			return "", nil, fmt.Errorf("%s: unknown sort field %q: %w", r.table.Name, o.Field, storage.ErrInvalidQuery)
		}
		hasID = hasID || column == "id"

		direction := "ASC"
		if o.Direction == storage.Desc {
			direction = "DESC"
		}
		orders = append(orders, column+" "+direction)
	}
	if !hasID {
		orders = append(orders, "id ASC")
	}

	var (
		b    strings.Builder
		args []any
	)
	fmt.Fprintf(&b, "SELECT %s FROM %s ORDER BY %s", r.selectColumns(), r.table.Name, strings.Join(orders, ", "))

	if q.Limit > 0 {
		args = append(args, q.Limit, q.Offset)
		fmt.Fprintf(&b, " LIMIT %s OFFSET %s", r.dialect.placeholder(1), r.dialect.placeholder(2))
	}

	return b.String(), args, nil
}

func (r *Repository[T]) column(field string) (string, bool) {
	if field == "id" {
		return "id", true
	}
	column, ok := r.table.Fields[field]
	return column, ok
}

func (r *Repository[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+r.table.Name).Scan(&count); err != nil {
		return 0, r.wrap("count", err)
	}
	return count, nil
}

func (r *Repository[T]) DeleteByID(ctx context.Context, id int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = %s", r.table.Name, r.dialect.placeholder(1))
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return r.wrap("delete", err)
	}
	return nil
}

func (r *Repository[T]) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM "+r.table.Name); err != nil {
		return r.wrap("delete all", err)
	}
	return nil
}

func (r *Repository[T]) SortFields() []string {
	fields := make([]string, 0, len(r.table.Fields)+1)
	fields = append(fields, "id")
	for field := range r.table.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields[1:])
	return fields
}

func (r *Repository[T]) wrap(op string, err error) error {
	if r.dialect.foreignKeyViolation(err) {
		return fmt.Errorf("%s %s: %w: %v", r.table.Name, op, storage.ErrInvalidReference, err)
	}
	return fmt.Errorf("%s %s: %w", r.table.Name, op, err)
}
