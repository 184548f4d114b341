package resource

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/employee-api/internal/storage"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    storage.Query
		paged   bool
		wantErr bool
	}{
		{name: "empty", query: ""},
		{
			name:  "sort defaults to ascending",
			query: "sort=regionName",
			want:  storage.Query{Sort: []storage.Order{{Field: "regionName", Direction: storage.Asc}}},
		},
		{
			name:  "repeated sort",
			query: "sort=city,desc&sort=id,asc",
			want: storage.Query{Sort: []storage.Order{
				{Field: "city", Direction: storage.Desc},
				{Field: "id", Direction: storage.Asc},
			}},
		},
		{
			name:  "page and size",
			query: "page=3&size=10",
			want:  storage.Query{Limit: 10, Offset: 30},
			paged: true,
		},
		{
			name:  "size defaults",
			query: "page=1",
			want:  storage.Query{Limit: defaultPageSize, Offset: defaultPageSize},
			paged: true,
		},
		{
			name:  "eagerload",
			query: "eagerload=true",
			want:  storage.Query{Eager: true},
		},
		{name: "bad direction", query: "sort=id,up", wantErr: true},
		{name: "empty sort field", query: "sort=,desc", wantErr: true},
		{name: "size too large", query: "size=1001", wantErr: true},
		{name: "page not a number", query: "page=first", wantErr: true},
		{name: "eagerload not a bool", query: "eagerload=yes-please", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/regions?"+tt.query, nil)

			q, paged, err := parseQuery(r)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
			assert.Equal(t, tt.paged, paged)
		})
	}
}

func TestPaginationLink(t *testing.T) {
	u, err := url.Parse("/api/tasks?page=0&size=10&sort=id,desc")
	require.NoError(t, err)

	link := paginationLink(u, storage.Query{Limit: 10, Offset: 0}, 25)

	assert.Equal(t,
		`</api/tasks?page=1&size=10&sort=id%2Cdesc>; rel="next",`+
			`</api/tasks?page=2&size=10&sort=id%2Cdesc>; rel="last",`+
			`</api/tasks?page=0&size=10&sort=id%2Cdesc>; rel="first"`,
		link)
}

func TestPaginationLink_LastPage(t *testing.T) {
	u, err := url.Parse("/api/tasks?page=2&size=10")
	require.NoError(t, err)

	link := paginationLink(u, storage.Query{Limit: 10, Offset: 20}, 25)

	assert.NotContains(t, link, `rel="next"`)
	assert.Contains(t, link, `</api/tasks?page=1&size=10>; rel="prev"`)
}

func TestPaginationLink_Empty(t *testing.T) {
	u, err := url.Parse("/api/tasks?size=5")
	require.NoError(t, err)

	link := paginationLink(u, storage.Query{Limit: 5}, 0)

	assert.Equal(t, `</api/tasks?page=0&size=5>; rel="last",</api/tasks?page=0&size=5>; rel="first"`, link)
}
