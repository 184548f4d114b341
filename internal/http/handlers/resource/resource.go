// Package resource contains the HTTP handlers shared by every entity.
//
// A Resource binds one entity type to its repository. Each method is a
// factory: it runs once when the route is registered and returns the
// handler func that runs on every request, closing over the resource.
//
//	regions := resource.New("region", store.Regions, regionID, alerts)
//	router.Post("/api/regions", regions.Create())
//
// The id rules are the same for every entity:
//
//	POST          body id must be absent                  → 400 idexists
//	PUT / PATCH   body id must be present                 → 400 idnull
//	              body id must equal the path id          → 400 idinvalid
//	              the id must exist                       → 400 idnotfound
//	GET           unknown id                              → 404
//
// Every rule is checked before the repository is asked to write anything.
package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/employee-api/internal/storage"
	"github.com/aanand-mishra/employee-api/internal/utils/response"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports field errors by their JSON names ("regionName")
// rather than the Go field names ("RegionName").
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Resource is the HTTP-facing handler group for one entity type.
type Resource[T any] struct {
	name   string
	repo   storage.Repository[T]
	id     func(*T) *int64
	alerts response.Alerts
}

// New returns the handler group for entities named name (used in error
// bodies and alert headers). id returns a pointer to the entity's id.
func New[T any](name string, repo storage.Repository[T], id func(*T) *int64, alerts response.Alerts) *Resource[T] {
	return &Resource[T]{name: name, repo: repo, id: id, alerts: alerts}
}

// Name is the entity name, e.g. "jobHistory".
func (res *Resource[T]) Name() string {
	return res.name
}

// Create handles POST /api/{entities}.
func (res *Resource[T]) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("request to create entity", slog.String("entity", res.name))

		entity, err := decode[T](w, r)
		if err != nil {
			res.fail(w, r, err)
			return
		}

		if *res.id(&entity) != 0 {
			res.fail(w, r, response.BadRequestAlert(
				fmt.Sprintf("A new %s cannot already have an ID", res.name), res.name, "idexists"))
			return
		}

		if err := validate.Struct(entity); err != nil {
			res.fail(w, r, err)
			return
		}

		saved, err := res.repo.Save(r.Context(), entity)
		if err != nil {
			res.fail(w, r, err)
			return
		}

		id := strconv.FormatInt(*res.id(&saved), 10)
		slog.Info("entity created", slog.String("entity", res.name), slog.String("id", id))

		w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+id)
		res.alerts.Success(w, res.name, "created", id)
		response.WriteJSON(w, http.StatusCreated, saved)
	}
}

// GetByID handles GET /api/{entities}/{id}.
func (res *Resource[T]) GetByID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := res.pathID(r)
		if err != nil {
			res.fail(w, r, err)
			return
		}
		slog.Debug("request to get entity", slog.String("entity", res.name), slog.Int64("id", id))

		entity, err := res.repo.FindByID(r.Context(), id)
		if err != nil {
			res.fail(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, entity)
	}
}

// GetList handles GET /api/{entities}.
//
// Query parameters:
//
//	sort=field[,asc|desc]  repeatable
//	page, size             bounded page with X-Total-Count and Link headers
//	eagerload=true         load to-many relationships
//
// With Accept: application/x-ndjson the rows are streamed one per line.
func (res *Resource[T]) GetList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("request to list entities", slog.String("entity", res.name))

		q, paged, err := parseQuery(r)
		if err != nil {
			res.fail(w, r, err)
			return
		}

		if response.WantsNDJSON(r) {
			res.stream(w, r, q)
			return
		}

		if paged {
			total, err := res.repo.Count(r.Context())
			if err != nil {
				res.fail(w, r, err)
				return
			}
			w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
			w.Header().Set("Link", paginationLink(r.URL, q, total))
		}

		entities, err := res.repo.FindAll(r.Context(), q)
		if err != nil {
			res.fail(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, entities)
	}
}

func (res *Resource[T]) stream(w http.ResponseWriter, r *http.Request, q storage.Query) {
	out := response.NewNDJSONWriter(w)

	err := res.repo.Stream(r.Context(), q, func(entity T) error {
		return out.Encode(entity)
	})
	if err == nil {
		// An empty listing still gets a 200 with the stream content type.
		out.Start()
		return
	}

	if !out.Started() {
		res.fail(w, r, err)
		return
	}

	// Headers are gone; all that is left is to cut the stream short.
	slog.Error("listing stream aborted",
		slog.String("entity", res.name),
		slog.String("error", err.Error()))
}

// Update handles PUT /api/{entities}/{id} and replaces the stored entity.
func (res *Resource[T]) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathID, err := res.pathID(r)
		if err != nil {
			res.fail(w, r, err)
			return
		}
		slog.Debug("request to update entity", slog.String("entity", res.name), slog.Int64("id", pathID))

		entity, err := decode[T](w, r)
		if err != nil {
			res.fail(w, r, err)
			return
		}

		if err := res.checkID(r, pathID, *res.id(&entity)); err != nil {
			res.fail(w, r, err)
			return
		}

		if err := validate.Struct(entity); err != nil {
			res.fail(w, r, err)
			return
		}

		saved, err := res.repo.Save(r.Context(), entity)
		if err != nil {
			res.fail(w, r, res.notFoundAsAlert(err))
			return
		}

		slog.Info("entity updated", slog.String("entity", res.name), slog.Int64("id", pathID))
		res.alerts.Success(w, res.name, "updated", strconv.FormatInt(pathID, 10))
		response.WriteJSON(w, http.StatusOK, saved)
	}
}

// PartialUpdate handles PATCH /api/{entities}/{id}. The body is an RFC 7396
// merge patch: fields it carries replace the stored values, fields it omits
// keep them, and null removes an optional field.
func (res *Resource[T]) PartialUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathID, err := res.pathID(r)
		if err != nil {
			res.fail(w, r, err)
			return
		}
		slog.Debug("request to partially update entity", slog.String("entity", res.name), slog.Int64("id", pathID))

		if !patchContentType(r.Header.Get("Content-Type")) {
			response.WriteProblem(w, response.Problem{
				Status:   http.StatusUnsupportedMediaType,
				Detail:   "Content-Type must be " + response.ContentTypeMergePatch,
				Instance: r.URL.Path,
			})
			return
		}

		patch, err := readBody(w, r)
		if err != nil {
			res.fail(w, r, err)
			return
		}

		var partial T
		if err := json.Unmarshal(patch, &partial); err != nil {
			res.fail(w, r, badBody(err))
			return
		}

		if err := res.checkID(r, pathID, *res.id(&partial)); err != nil {
			res.fail(w, r, err)
			return
		}

		current, err := res.repo.FindByID(r.Context(), pathID)
		if err != nil {
			res.fail(w, r, res.notFoundAsAlert(err))
			return
		}

		merged, err := mergePatch(current, patch)
		if err != nil {
			res.fail(w, r, badBody(err))
			return
		}
		*res.id(&merged) = pathID

		if err := validate.Struct(merged); err != nil {
			res.fail(w, r, err)
			return
		}

		saved, err := res.repo.Save(r.Context(), merged)
		if err != nil {
			res.fail(w, r, res.notFoundAsAlert(err))
			return
		}

		slog.Info("entity patched", slog.String("entity", res.name), slog.Int64("id", pathID))
		res.alerts.Success(w, res.name, "updated", strconv.FormatInt(pathID, 10))
		response.WriteJSON(w, http.StatusOK, saved)
	}
}

// Delete handles DELETE /api/{entities}/{id}. References held by other
// entities are cleared by the store, so the delete itself never fails on
// them.
func (res *Resource[T]) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := res.pathID(r)
		if err != nil {
			res.fail(w, r, err)
			return
		}
		slog.Debug("request to delete entity", slog.String("entity", res.name), slog.Int64("id", id))

		if err := res.repo.DeleteByID(r.Context(), id); err != nil {
			res.fail(w, r, err)
			return
		}

		slog.Info("entity deleted", slog.String("entity", res.name), slog.Int64("id", id))
		res.alerts.Success(w, res.name, "deleted", strconv.FormatInt(id, 10))
		w.WriteHeader(http.StatusNoContent)
	}
}

// MethodNotAllowed answers PUT/PATCH/DELETE sent to the collection URL.
func (res *Resource[T]) MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteProblem(w, response.Problem{
			Status:   http.StatusMethodNotAllowed,
			Detail:   fmt.Sprintf("Request method '%s' is not supported", r.Method),
			Instance: r.URL.Path,
		})
	}
}

func (res *Resource[T]) fail(w http.ResponseWriter, r *http.Request, err error) {
	var alert *response.AlertError
	if errors.As(err, &alert) && alert.EntityName == "" {
		alert.EntityName = res.name
	}
	res.alerts.WriteError(w, r, res.name, err)
}

// checkID applies the update id rules shared by PUT and PATCH, including
// the existence check.
func (res *Resource[T]) checkID(r *http.Request, pathID, bodyID int64) error {
	if bodyID == 0 {
		return response.BadRequestAlert("Invalid id", res.name, "idnull")
	}
	if bodyID != pathID {
		return response.BadRequestAlert("Invalid ID", res.name, "idinvalid")
	}

	exists, err := res.repo.ExistsByID(r.Context(), pathID)
	if err != nil {
		return err
	}
	if !exists {
		return response.BadRequestAlert("Entity not found", res.name, "idnotfound")
	}

	return nil
}

// notFoundAsAlert turns a row that vanished between the existence check
// and the write into the same 400 the check itself would have produced.
func (res *Resource[T]) notFoundAsAlert(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return response.BadRequestAlert("Entity not found", res.name, "idnotfound")
	}
	return err
}

func (res *Resource[T]) pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, response.BadRequestAlert("invalid id: must be a positive integer", res.name, "idinvalid")
	}

	return id, nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, badBody(err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, badBody(errors.New("request body is empty"))
	}
	return body, nil
}

func decode[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var entity T

	body, err := readBody(w, r)
	if err != nil {
		return entity, err
	}

	if err := json.Unmarshal(body, &entity); err != nil {
		return entity, badBody(err)
	}

	return entity, nil
}

func badBody(err error) error {
	return &response.AlertError{
		Status:   http.StatusBadRequest,
		ErrorKey: "badbody",
		Detail:   err.Error(),
	}
}

// mergePatch applies patch to the JSON form of current and decodes the
// result into a fresh value.
func mergePatch[T any](current T, patch []byte) (T, error) {
	var merged T

	doc, err := json.Marshal(current)
	if err != nil {
		return merged, err
	}

	out, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return merged, err
	}

	if err := json.Unmarshal(out, &merged); err != nil {
		return merged, err
	}

	return merged, nil
}

func patchContentType(header string) bool {
	if header == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	return mediaType == response.ContentTypeMergePatch || mediaType == response.ContentTypeJSON
}
