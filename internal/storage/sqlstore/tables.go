package sqlstore

import (
	"database/sql"
	"time"

	"github.com/aanand-mishra/employee-api/internal/types"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullRef(r *types.Ref) sql.NullInt64 {
	id := types.RefID(r)
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func refOf(n sql.NullInt64) *types.Ref {
	if !n.Valid {
		return nil
	}
	return types.NewRef(n.Int64)
}

func intOf(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timeOf(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time.UTC()
	return &t
}

var RegionTable = Table[types.Region]{
	Name:    "region",
	Columns: []string{"region_name"},
	Fields:  map[string]string{"regionName": "region_name"},
	ID:      func(e *types.Region) *int64 { return &e.ID },
	Values: func(e types.Region) []any {
		return []any{nullString(e.RegionName)}
	},
	Scan: func(s Scanner) (types.Region, error) {
		var (
			e    types.Region
			name sql.NullString
		)
		err := s.Scan(&e.ID, &name)
		e.RegionName = name.String
		return e, err
	},
}

var CountryTable = Table[types.Country]{
	Name:    "country",
	Columns: []string{"country_name", "region_id"},
	Fields:  map[string]string{"countryName": "country_name"},
	ID:      func(e *types.Country) *int64 { return &e.ID },
	Values: func(e types.Country) []any {
		return []any{nullString(e.CountryName), nullRef(e.Region)}
	},
	Scan: func(s Scanner) (types.Country, error) {
		var (
			e      types.Country
			name   sql.NullString
			region sql.NullInt64
		)
		err := s.Scan(&e.ID, &name, &region)
		e.CountryName = name.String
		e.Region = refOf(region)
		return e, err
	},
}

var LocationTable = Table[types.Location]{
	Name:    "location",
	Columns: []string{"street_address", "postal_code", "city", "state_province", "country_id"},
	Fields: map[string]string{
		"streetAddress": "street_address",
		"postalCode":    "postal_code",
		"city":          "city",
		"stateProvince": "state_province",
	},
	ID: func(e *types.Location) *int64 { return &e.ID },
	Values: func(e types.Location) []any {
		return []any{
			nullString(e.StreetAddress),
			nullString(e.PostalCode),
			nullString(e.City),
			nullString(e.StateProvince),
			nullRef(e.Country),
		}
	},
	Scan: func(s Scanner) (types.Location, error) {
		var (
			e                           types.Location
			street, postal, city, state sql.NullString
			country                     sql.NullInt64
		)
		err := s.Scan(&e.ID, &street, &postal, &city, &state, &country)
		e.StreetAddress = street.String
		e.PostalCode = postal.String
		e.City = city.String
		e.StateProvince = state.String
		e.Country = refOf(country)
		return e, err
	},
}

var DepartmentTable = Table[types.Department]{
	Name:    "department",
	Columns: []string{"department_name", "location_id"},
	Fields:  map[string]string{"departmentName": "department_name"},
	ID:      func(e *types.Department) *int64 { return &e.ID },
	Values: func(e types.Department) []any {
		return []any{nullString(e.DepartmentName), nullRef(e.Location)}
	},
	Scan: func(s Scanner) (types.Department, error) {
		var (
			e        types.Department
			name     sql.NullString
			location sql.NullInt64
		)
		err := s.Scan(&e.ID, &name, &location)
		e.DepartmentName = name.String
		e.Location = refOf(location)
		return e, err
	},
}

var TaskTable = Table[types.Task]{
	Name:    "task",
	Columns: []string{"title", "description"},
	Fields:  map[string]string{"title": "title", "description": "description"},
	ID:      func(e *types.Task) *int64 { return &e.ID },
	Values: func(e types.Task) []any {
		return []any{nullString(e.Title), nullString(e.Description)}
	},
	Scan: func(s Scanner) (types.Task, error) {
		var (
			e                  types.Task
			title, description sql.NullString
		)
		err := s.Scan(&e.ID, &title, &description)
		e.Title = title.String
		e.Description = description.String
		return e, err
	},
}

// JobTable covers the job row only; tasks live in the link table and are
// handled by JobRepository.
var JobTable = Table[types.Job]{
	Name:    "job",
	Columns: []string{"job_title", "min_salary", "max_salary"},
	Fields: map[string]string{
		"jobTitle":  "job_title",
		"minSalary": "min_salary",
		"maxSalary": "max_salary",
	},
	ID: func(e *types.Job) *int64 { return &e.ID },
	Values: func(e types.Job) []any {
		return []any{nullString(e.JobTitle), nullInt(e.MinSalary), nullInt(e.MaxSalary)}
	},
	Scan: func(s Scanner) (types.Job, error) {
		var (
			e                    types.Job
			title                sql.NullString
			minSalary, maxSalary sql.NullInt64
		)
		err := s.Scan(&e.ID, &title, &minSalary, &maxSalary)
		e.JobTitle = title.String
		e.MinSalary = intOf(minSalary)
		e.MaxSalary = intOf(maxSalary)
		return e, err
	},
}

var JobHistoryTable = Table[types.JobHistory]{
	Name:    "job_history",
	Columns: []string{"start_date", "end_date", "language", "job_id", "department_id"},
	Fields: map[string]string{
		"startDate": "start_date",
		"endDate":   "end_date",
		"language":  "language",
	},
	ID: func(e *types.JobHistory) *int64 { return &e.ID },
	Values: func(e types.JobHistory) []any {
		return []any{
			nullTime(e.StartDate),
			nullTime(e.EndDate),
			nullString(string(e.Language)),
			nullRef(e.Job),
			nullRef(e.Department),
		}
	},
	Scan: func(s Scanner) (types.JobHistory, error) {
		var (
			e               types.JobHistory
			start, end      sql.NullTime
			language        sql.NullString
			job, department sql.NullInt64
		)
		err := s.Scan(&e.ID, &start, &end, &language, &job, &department)
		e.StartDate = timeOf(start)
		e.EndDate = timeOf(end)
		e.Language = types.Language(language.String)
		e.Job = refOf(job)
		e.Department = refOf(department)
		return e, err
	},
}
