package resource

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aanand-mishra/employee-api/internal/storage"
	"github.com/aanand-mishra/employee-api/internal/utils/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
)

// parseQuery reads sort, page, size and eagerload. paged is true when the
// caller asked for a bounded page.
func parseQuery(r *http.Request) (storage.Query, bool, error) {
	values := r.URL.Query()
	var q storage.Query

	for _, raw := range values["sort"] {
		order, err := parseOrder(raw)
		if err != nil {
			return q, false, err
		}
		q.Sort = append(q.Sort, order)
	}

	if raw := values.Get("eagerload"); raw != "" {
		eager, err := strconv.ParseBool(raw)
		if err != nil {
			return q, false, invalidQuery("eagerload must be true or false")
		}
		q.Eager = eager
	}

	_, hasPage := values["page"]
	_, hasSize := values["size"]
	if !hasPage && !hasSize {
		return q, false, nil
	}

	page, err := intParam(values, "page", 0)
	if err != nil || page < 0 {
		return q, false, invalidQuery("page must be a non-negative integer")
	}
	size, err := intParam(values, "size", defaultPageSize)
	if err != nil || size < 1 || size > maxPageSize {
		return q, false, invalidQuery(fmt.Sprintf("size must be between 1 and %d", maxPageSize))
	}

	q.Limit = size
	q.Offset = page * size

	return q, true, nil
}

// parseOrder accepts "field", "field,asc" and "field,desc".
func parseOrder(raw string) (storage.Order, error) {
	field, direction, _ := strings.Cut(raw, ",")
	field = strings.TrimSpace(field)
	if field == "" {
		return storage.Order{}, invalidQuery("sort field is empty")
	}

	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "", "asc":
		return storage.Order{Field: field, Direction: storage.Asc}, nil
	case "desc":
		return storage.Order{Field: field, Direction: storage.Desc}, nil
	default:
		return storage.Order{}, invalidQuery(fmt.Sprintf("sort direction %q must be asc or desc", direction))
	}
}

func intParam(values url.Values, name string, def int) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func invalidQuery(detail string) error {
	return &response.AlertError{
		Status:   http.StatusBadRequest,
		ErrorKey: "invalidquery",
		Detail:   detail,
	}
}

// paginationLink builds the RFC 5988 Link header with next, prev, last and
// first relations, keeping every other query parameter of the request.
func paginationLink(u *url.URL, q storage.Query, total int64) string {
	size := q.Limit
	page := q.Offset / size

	lastPage := 0
	if total > 0 {
		lastPage = int((total - 1) / int64(size))
	}

	link := func(p int, rel string) string {
		values := u.Query()
		values.Set("page", strconv.Itoa(p))
		values.Set("size", strconv.Itoa(size))
		target := url.URL{Path: u.Path, RawQuery: values.Encode()}
		return fmt.Sprintf("<%s>; rel=\"%s\"", target.String(), rel)
	}

	var links []string
	if page < lastPage {
		links = append(links, link(page+1, "next"))
	}
	if page > 0 {
		links = append(links, link(page-1, "prev"))
	}
	links = append(links, link(lastPage, "last"), link(0, "first"))

	return strings.Join(links, ",")
}
