package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aanand-mishra/employee-api/internal/storage"
	"github.com/aanand-mishra/employee-api/internal/types"
)

const jobTaskTable = "rel_job__task"

// JobRepository stores jobs together with their many-to-many task links.
// The job row and its links are written in one transaction.
type JobRepository struct {
	*Repository[types.Job]
}

var _ storage.Repository[types.Job] = (*JobRepository)(nil)

func NewJobRepository(db *sql.DB, dialect Dialect) *JobRepository {
	return &JobRepository{Repository: NewRepository(db, dialect, JobTable)}
}

func (r *JobRepository) Save(ctx context.Context, job types.Job) (types.Job, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return job, fmt.Errorf("job save: begin: %w", err)
	}
	defer tx.Rollback()

	saved, err := r.save(ctx, tx, job)
	if err != nil {
		return job, err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM "+jobTaskTable+" WHERE job_id = "+r.dialect.placeholder(1), saved.ID); err != nil {
		return job, r.wrap("unlink tasks", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (job_id, task_id) VALUES (%s)", jobTaskTable, r.dialect.placeholders(1, 2))
	seen := make(map[int64]bool, len(saved.Tasks))
	for _, task := range saved.Tasks {
		if seen[task.ID] {
			continue
		}
		seen[task.ID] = true

		if _, err := tx.ExecContext(ctx, insert, saved.ID, task.ID); err != nil {
			return job, r.wrap("link task", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return job, fmt.Errorf("job save: commit: %w", err)
	}

	return saved, nil
}

// FindByID always loads the job's tasks.
func (r *JobRepository) FindByID(ctx context.Context, id int64) (types.Job, error) {
	job, err := r.Repository.FindByID(ctx, id)
	if err != nil {
		return job, err
	}

	links, err := r.links(ctx, &id)
	if err != nil {
		return job, err
	}
	job.Tasks = links[id]

	return job, nil
}

func (r *JobRepository) FindAll(ctx context.Context, q storage.Query) ([]types.Job, error) {
	jobs := make([]types.Job, 0)

	err := r.Stream(ctx, q, func(job types.Job) error {
		jobs = append(jobs, job)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return jobs, nil
}

// Stream loads every link up front when q.Eager is set, so no second
// query runs while the job rows are still open.
func (r *JobRepository) Stream(ctx context.Context, q storage.Query, fn func(types.Job) error) error {
	if !q.Eager {
		return r.Repository.Stream(ctx, q, fn)
	}

	links, err := r.links(ctx, nil)
	if err != nil {
		return err
	}

	return r.Repository.Stream(ctx, q, func(job types.Job) error {
		job.Tasks = links[job.ID]
		return fn(job)
	})
}

// links returns task references keyed by job id, for one job or all.
func (r *JobRepository) links(ctx context.Context, jobID *int64) (map[int64][]types.Ref, error) {
	query := "SELECT job_id, task_id FROM " + jobTaskTable
	var args []any
	if jobID != nil {
		query += " WHERE job_id = " + r.dialect.placeholder(1)
		args = append(args, *jobID)
	}
	query += " ORDER BY job_id, task_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.wrap("load tasks", err)
	}
	defer rows.Close()

	links := make(map[int64][]types.Ref)
	for rows.Next() {
		var job, task int64
		if err := rows.Scan(&job, &task); err != nil {
			return nil, r.wrap("load tasks: scan row", err)
		}
		links[job] = append(links[job], types.Ref{ID: task})
	}

	if err := rows.Err(); err != nil {
		return nil, r.wrap("load tasks: rows iteration", err)
	}

	return links, nil
}
