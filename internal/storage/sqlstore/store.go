package sqlstore

import (
	"database/sql"

	"github.com/aanand-mishra/employee-api/internal/storage"
)

// New wires one repository per entity over db.
func New(db *sql.DB, dialect Dialect) *storage.Storage {
	return &storage.Storage{
		Regions:      NewRepository(db, dialect, RegionTable),
		Countries:    NewRepository(db, dialect, CountryTable),
		Locations:    NewRepository(db, dialect, LocationTable),
		Departments:  NewRepository(db, dialect, DepartmentTable),
		Tasks:        NewRepository(db, dialect, TaskTable),
		Jobs:         NewJobRepository(db, dialect),
		JobHistories: NewRepository(db, dialect, JobHistoryTable),
		Ping:         db.PingContext,
		Closer:       db,
	}
}
