package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTenantHandler() *Tenant {
	return NewTenant(nil)
}

func TestTenantCreate_InvalidJSON(t *testing.T) {
	h := newTenantHandler()
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPost, "/tenants", "{bad json")

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "invalid JSON")
}

func TestTenantCreate_MissingName(t *testing.T) {
	h := newTenantHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/tenants", map[string]any{})

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestTenantCreate_NegativeQuota(t *testing.T) {
	h := newTenantHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/tenants", map[string]any{
		"name":    "acme",
		"max_cpu": -1,
	})

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantCreate_InvalidSlugName(t *testing.T) {
	tests := []struct {
		name string
		slug string
	}{
		{"uppercase", "Acme"},
		{"spaces", "acme corp"},
		{"starts with digit", "1acme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTenantHandler()
			rec := httptest.NewRecorder()
			r := newRequest(http.MethodPost, "/tenants", map[string]any{
				"name": tt.slug,
			})

			h.Create(rec, r)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTenantGet_MissingID(t *testing.T) {
	h := newTenantHandler()
	rec := httptest.NewRecorder()
	r := withChiURLParams(newRequest(http.MethodGet, "/tenants/", nil), map[string]string{})

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
