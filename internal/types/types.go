// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, and utils can all import types without depending
// on each other.
//
// Every entity has a server-assigned ID. The zero value means "not yet
// persisted": the JSON encoder omits it and the create handler rejects
// a request body that carries one.
package types

import "time"

// Ref is a many-to-one reference to another entity, encoded as {"id": n}.
type Ref struct {
	ID int64 `json:"id" validate:"gt=0"`
}

// NewRef returns a reference to id, or nil when id is zero.
func NewRef(id int64) *Ref {
	if id == 0 {
		return nil
	}
	return &Ref{ID: id}
}

// RefID returns the referenced id, or zero for a nil reference.
func RefID(r *Ref) int64 {
	if r == nil {
		return 0
	}
	return r.ID
}

// Region is the top of the geography hierarchy.
type Region struct {
	ID         int64  `json:"id,omitempty"`
	RegionName string `json:"regionName,omitempty" validate:"max=255"`
}

// Country belongs to a Region.
type Country struct {
	ID          int64  `json:"id,omitempty"`
	CountryName string `json:"countryName,omitempty" validate:"max=255"`
	Region      *Ref   `json:"region,omitempty"`
}

// Location is a street address inside a Country.
type Location struct {
	ID            int64  `json:"id,omitempty"`
	StreetAddress string `json:"streetAddress,omitempty" validate:"max=255"`
	PostalCode    string `json:"postalCode,omitempty" validate:"max=255"`
	City          string `json:"city,omitempty" validate:"max=255"`
	StateProvince string `json:"stateProvince,omitempty" validate:"max=255"`
	Country       *Ref   `json:"country,omitempty"`
}

// Department is housed at a Location.
type Department struct {
	ID             int64  `json:"id,omitempty"`
	DepartmentName string `json:"departmentName,omitempty" validate:"max=255"`
	Location       *Ref   `json:"location,omitempty"`
}

// Task is a unit of work that can be attached to many Jobs.
type Task struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title,omitempty" validate:"max=255"`
	Description string `json:"description,omitempty" validate:"max=255"`
}

// Job owns a set of Tasks through the job/task link table.
type Job struct {
	ID        int64  `json:"id,omitempty"`
	JobTitle  string `json:"jobTitle,omitempty" validate:"max=255"`
	MinSalary *int64 `json:"minSalary,omitempty" validate:"omitempty,gte=0"`
	MaxSalary *int64 `json:"maxSalary,omitempty" validate:"omitempty,gte=0"`
	Tasks     []Ref  `json:"tasks,omitempty" validate:"dive"`
}

// Language is the working language recorded on a JobHistory.
type Language string

const (
	LanguageFrench  Language = "FRENCH"
	LanguageEnglish Language = "ENGLISH"
	LanguageSpanish Language = "SPANISH"
)

// JobHistory records a period an employee spent in a Job and Department.
type JobHistory struct {
	ID         int64      `json:"id,omitempty"`
	StartDate  *time.Time `json:"startDate,omitempty"`
	EndDate    *time.Time `json:"endDate,omitempty"`
	Language   Language   `json:"language,omitempty" validate:"omitempty,oneof=FRENCH ENGLISH SPANISH"`
	Job        *Ref       `json:"job,omitempty"`
	Department *Ref       `json:"department,omitempty"`
}
