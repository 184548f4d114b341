package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/employee-api/internal/storage"
)

func TestWantsNDJSON(t *testing.T) {
	tests := []struct {
		accept string
		want   bool
	}{
		{"", false},
		{"application/json", false},
		{"application/x-ndjson", true},
		{"application/ndjson", true},
		{"application/json, application/x-ndjson;q=0.9", true},
		{"text/html", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/regions", nil)
		if tt.accept != "" {
			r.Header.Set("Accept", tt.accept)
		}
		assert.Equal(t, tt.want, WantsNDJSON(r), tt.accept)
	}
}

func TestNDJSONWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	out := NewNDJSONWriter(rec)
	assert.False(t, out.Started())

	require.NoError(t, out.Encode(map[string]int{"id": 1}))
	require.NoError(t, out.Encode(map[string]int{"id": 2}))
	out.Start()

	assert.True(t, out.Started())
	assert.True(t, rec.Flushed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeNDJSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, "{\"id\":1}\n{\"id\":2}\n", rec.Body.String())
}

func TestWriteProblem_Defaults(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteProblem(rec, Problem{Status: http.StatusNotFound}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ContentTypeProblem, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"type":"about:blank","title":"Not Found","status":404}`, rec.Body.String())
}

func TestAlerts_Success(t *testing.T) {
	rec := httptest.NewRecorder()
	Alerts{App: "employeeApp"}.Success(rec, "region", "created", "7")

	assert.Equal(t, "employeeApp.region.created", rec.Header().Get("X-employeeApp-alert"))
	assert.Equal(t, "7", rec.Header().Get("X-employeeApp-params"))
}

func TestAlerts_WriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKey    string
		wantHeader string
	}{
		{
			name:       "alert",
			err:        BadRequestAlert("A new region cannot already have an ID", "region", "idexists"),
			wantStatus: http.StatusBadRequest,
			wantKey:    "idexists",
			wantHeader: "error.idexists",
		},
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("find region: %w", storage.ErrNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid reference",
			err:        fmt.Errorf("save country: %w", storage.ErrInvalidReference),
			wantStatus: http.StatusBadRequest,
			wantKey:    "invalidreference",
			wantHeader: "error.invalidreference",
		},
		{
			name:       "invalid query",
			err:        fmt.Errorf("sort by name: %w", storage.ErrInvalidQuery),
			wantStatus: http.StatusBadRequest,
			wantKey:    "invalidquery",
		},
		{
			name:       "unexpected",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/regions", nil)

			Alerts{App: "employeeApp"}.WriteError(rec, r, "region", tt.err)

			require.Equal(t, tt.wantStatus, rec.Code)

			var p Problem
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantKey, p.ErrorKey)
			assert.Equal(t, "/api/regions", p.Instance)
			assert.Equal(t, tt.wantHeader, rec.Header().Get("X-employeeApp-error"))
			assert.NotContains(t, rec.Body.String(), "disk on fire")
		})
	}
}

func TestValidationErrors(t *testing.T) {
	type region struct {
		RegionName string `json:"regionName" validate:"required,max=3"`
		Language   string `json:"language" validate:"omitempty,oneof=FRENCH ENGLISH"`
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})

	err := v.Struct(region{RegionName: "toolong", Language: "GERMAN"})
	var errs validator.ValidationErrors
	require.True(t, errors.As(err, &errs))

	fieldErrors := ValidationErrors("region", errs)
	require.Len(t, fieldErrors, 2)

	assert.Equal(t, FieldError{
		ObjectName: "region",
		Field:      "regionName",
		Message:    "field regionName must be at most 3 characters",
	}, fieldErrors[0])
	assert.Equal(t, "language", fieldErrors[1].Field)
	assert.Equal(t, "field language must be one of [FRENCH ENGLISH]", fieldErrors[1].Message)
}
