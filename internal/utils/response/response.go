// Package response provides helpers for writing consistent HTTP responses:
// plain JSON bodies, newline-delimited JSON streams, RFC 7807 problem
// bodies and the alert headers announcing the outcome of a mutation.
//
// Error responses always look like:
//
//	{
//	  "type": "about:blank",
//	  "title": "Bad Request",
//	  "status": 400,
//	  "detail": "A new region cannot already have an ID",
//	  "instance": "/api/regions",
//	  "entityName": "region",
//	  "errorKey": "idexists",
//	  "message": "error.idexists",
//	  "params": "region"
//	}
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/employee-api/internal/storage"
)

// Media types negotiated by the handlers.
const (
	ContentTypeJSON       = "application/json"
	ContentTypeNDJSON     = "application/x-ndjson"
	ContentTypeProblem    = "application/problem+json"
	ContentTypeMergePatch = "application/merge-patch+json"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WantsNDJSON reports whether the client asked for a streamed listing.
func WantsNDJSON(r *http.Request) bool {
	for _, accept := range r.Header.Values("Accept") {
		for _, part := range strings.Split(accept, ",") {
			mediaType := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
			if mediaType == ContentTypeNDJSON || mediaType == "application/ndjson" {
				return true
			}
		}
	}
	return false
}

// NDJSONWriter writes one JSON document per line and flushes after each,
// so the client sees every record as soon as it is read from the store.
type NDJSONWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	enc     *json.Encoder
	started bool
}

func NewNDJSONWriter(w http.ResponseWriter) *NDJSONWriter {
	return &NDJSONWriter{
		w:   w,
		rc:  http.NewResponseController(w),
		enc: json.NewEncoder(w),
	}
}

// Start sends the 200 status line and headers. Encode calls it implicitly.
func (n *NDJSONWriter) Start() {
	if n.started {
		return
	}
	n.started = true
	n.w.Header().Set("Content-Type", ContentTypeNDJSON)
	n.w.WriteHeader(http.StatusOK)
}

// Started reports whether the status line has been written.
func (n *NDJSONWriter) Started() bool {
	return n.started
}

func (n *NDJSONWriter) Encode(v any) error {
	n.Start()
	if err := n.enc.Encode(v); err != nil {
		return err
	}
	if err := n.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// FieldError describes one failed validation rule.
type FieldError struct {
	ObjectName string `json:"objectName"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

// Problem is an RFC 7807 body extended with the entity/error-key pair.
type Problem struct {
	Type        string       `json:"type"`
	Title       string       `json:"title"`
	Status      int          `json:"status"`
	Detail      string       `json:"detail,omitempty"`
	Instance    string       `json:"instance,omitempty"`
	EntityName  string       `json:"entityName,omitempty"`
	ErrorKey    string       `json:"errorKey,omitempty"`
	Message     string       `json:"message,omitempty"`
	Params      string       `json:"params,omitempty"`
	FieldErrors []FieldError `json:"fieldErrors,omitempty"`
}

// WriteProblem writes p as application/problem+json.
func WriteProblem(w http.ResponseWriter, p Problem) error {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}

	w.Header().Set("Content-Type", ContentTypeProblem)
	w.WriteHeader(p.Status)
	return json.NewEncoder(w).Encode(p)
}

// AlertError is a client error tied to an entity and a stable error key
// (idexists, idnull, idinvalid, idnotfound, ...).
type AlertError struct {
	Status     int
	EntityName string
	ErrorKey   string
	Detail     string
}

func (e *AlertError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.EntityName, e.Detail, e.ErrorKey)
}

// BadRequestAlert returns a 400 AlertError.
func BadRequestAlert(detail, entityName, errorKey string) error {
	return &AlertError{
		Status:     http.StatusBadRequest,
		EntityName: entityName,
		ErrorKey:   errorKey,
		Detail:     detail,
	}
}

// Alerts writes the X-<app>-alert / X-<app>-error header pairs.
type Alerts struct {
	App string
}

// Success announces a mutation, e.g. "employeeApp.region.created" with the id.
func (a Alerts) Success(w http.ResponseWriter, entityName, action string, param string) {
	w.Header().Set("X-"+a.App+"-alert", a.App+"."+entityName+"."+action)
	w.Header().Set("X-"+a.App+"-params", param)
}

// Failure announces a rejected request, e.g. "error.idexists".
func (a Alerts) Failure(w http.ResponseWriter, entityName, errorKey string) {
	w.Header().Set("X-"+a.App+"-error", "error."+errorKey)
	w.Header().Set("X-"+a.App+"-params", entityName)
}

// WriteError maps err onto a problem response:
//
//	*AlertError                 → its status, with failure alert headers
//	storage.ErrNotFound         → 404
//	storage.ErrInvalidReference → 400 invalidreference
//	storage.ErrInvalidQuery     → 400 invalidquery
//	validator.ValidationErrors  → 400 with fieldErrors
//	anything else               → 500, details logged and not returned
func (a Alerts) WriteError(w http.ResponseWriter, r *http.Request, entityName string, err error) {
	p := Problem{Instance: r.URL.Path}

	var (
		alert     *AlertError
		validErrs validator.ValidationErrors
	)
	switch {
	case errors.As(err, &alert):
		p.Status = alert.Status
		p.Detail = alert.Detail
		p.EntityName = alert.EntityName
		p.ErrorKey = alert.ErrorKey
		p.Message = "error." + alert.ErrorKey
		p.Params = alert.EntityName
		a.Failure(w, alert.EntityName, alert.ErrorKey)

	case errors.Is(err, storage.ErrNotFound):
		p.Status = http.StatusNotFound
		p.Detail = "Entity not found"
		p.Message = "error.http.404"

	case errors.Is(err, storage.ErrInvalidReference):
		p.Status = http.StatusBadRequest
		p.Detail = "A referenced entity does not exist"
		p.EntityName = entityName
		p.ErrorKey = "invalidreference"
		p.Message = "error.invalidreference"
		p.Params = entityName
		a.Failure(w, entityName, p.ErrorKey)

	case errors.Is(err, storage.ErrInvalidQuery):
		p.Status = http.StatusBadRequest
		p.Detail = err.Error()
		p.EntityName = entityName
		p.ErrorKey = "invalidquery"
		p.Message = "error.invalidquery"
		p.Params = entityName

	case errors.As(err, &validErrs):
		p.Status = http.StatusBadRequest
		p.Detail = "Method argument not valid"
		p.Message = "error.validation"
		p.FieldErrors = ValidationErrors(entityName, validErrs)

	default:
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		p.Status = http.StatusInternalServerError
		p.Detail = "Internal server error"
		p.Message = "error.http.500"
	}

	if err := WriteProblem(w, p); err != nil {
		slog.Warn("failed to write problem response", slog.String("error", err.Error()))
	}
}

// ValidationErrors converts validator field errors into FieldError values
// with a plain English message per rule.
func ValidationErrors(objectName string, errs validator.ValidationErrors) []FieldError {
	fieldErrors := make([]FieldError, 0, len(errs))

	for _, e := range errs {
		var message string
		switch e.ActualTag() {
		case "required":
			message = fmt.Sprintf("field %s is required", e.Field())
		case "max":
			message = fmt.Sprintf("field %s must be at most %s characters", e.Field(), e.Param())
		case "oneof":
			message = fmt.Sprintf("field %s must be one of [%s]", e.Field(), e.Param())
		case "gte", "gt":
			message = fmt.Sprintf("field %s must be %s %s", e.Field(), e.ActualTag(), e.Param())
		default:
			message = fmt.Sprintf("field %s is invalid", e.Field())
		}

		fieldErrors = append(fieldErrors, FieldError{
			ObjectName: objectName,
			Field:      e.Field(),
			Message:    message,
		})
	}

	return fieldErrors
}
