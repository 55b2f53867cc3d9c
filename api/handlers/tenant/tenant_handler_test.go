package tenant

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"edusuite/internal/auth"
	"edusuite/internal/common"
	tenantSvc "edusuite/internal/tenant"
	"edusuite/internal/worker/tasks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTenantService struct {
	lastCreate tenantSvc.CreateTenantParams
	lastUpdate tenantSvc.UpdateTenantParams
	deleted    []string
	createErr  error
}

func (f *fakeTenantService) CreateTenant(ctx context.Context, params tenantSvc.CreateTenantParams) (*tenantSvc.Tenant, error) {
	f.lastCreate = params
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &tenantSvc.Tenant{ID: "tenant-1", Code: params.Code, Name: params.Name, IsActive: true}, nil
}

func (f *fakeTenantService) UpdateTenant(ctx context.Context, id string, params tenantSvc.UpdateTenantParams) (*tenantSvc.Tenant, error) {
	f.lastUpdate = params
	if id != "tenant-1" {
		return nil, tenantSvc.ErrTenantNotFound
	}
	t := &tenantSvc.Tenant{ID: id, Code: "ACME", Name: "Acme", IsActive: true}
	if params.Name != nil {
		t.Name = *params.Name
	}
	if params.IsActive != nil {
		t.IsActive = *params.IsActive
	}
	return t, nil
}

func (f *fakeTenantService) DeleteTenant(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeTenantService) GetTenant(ctx context.Context, id string) (*tenantSvc.Tenant, error) {
	if id == "tenant-1" {
		return &tenantSvc.Tenant{ID: "tenant-1", Code: "ACME", Name: "Acme", IsActive: true}, nil
	}
	return nil, tenantSvc.ErrTenantNotFound
}

func (f *fakeTenantService) GetTenantByCode(ctx context.Context, code string) (*tenantSvc.Tenant, error) {
	if code == "ACME" {
		return &tenantSvc.Tenant{ID: "tenant-1", Code: "ACME", Name: "Acme", IsActive: true}, nil
	}
	return nil, tenantSvc.ErrTenantNotFound
}

func (f *fakeTenantService) ListTenants(ctx context.Context) ([]*tenantSvc.Tenant, error) {
	return []*tenantSvc.Tenant{
		{ID: "tenant-1", Code: "ACME", Name: "Acme", IsActive: true},
		{ID: "tenant-2", Code: "BETA", Name: "Beta School", IsActive: true},
	}, nil
}

type fakeQueue struct {
	warmups []string
}

func (q *fakeQueue) EnqueueCacheWarmup(requestedBy string) error {
	q.warmups = append(q.warmups, requestedBy)
	return nil
}

func (q *fakeQueue) EnqueueSoftDeleteReport(tasks.SoftDeleteReportPayload) error { return nil }

func (q *fakeQueue) Close() error { return nil }

func setupRouter(h *TenantHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(auth.ActorMiddleware(nil, "system", nil))
	g := r.Group("/api/tenants")
	g.POST("", h.CreateTenant)
	g.GET("", h.ListTenants)
	g.POST("/cache/warmup", h.WarmCache)
	g.GET("/code/:code", h.GetTenantByCode)
	g.GET("/:id", h.GetTenant)
	g.PUT("/:id", h.UpdateTenant)
	g.DELETE("/:id", h.DeleteTenant)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTenantHandler_Create(t *testing.T) {
	svc := &fakeTenantService{}
	r := setupRouter(NewTenantHandler(svc, nil, nil))

	w := doJSON(r, http.MethodPost, "/api/tenants",
		`{"code":"ACME","name":"Acme Academy","settings":{"timeZone":"Asia/Kolkata","storage":{"provider":"S3"}}}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "ACME", svc.lastCreate.Code)
	require.NotNil(t, svc.lastCreate.Settings)
	assert.Equal(t, "Asia/Kolkata", svc.lastCreate.Settings.TimeZone)
	require.NotNil(t, svc.lastCreate.Settings.Storage)
	assert.Equal(t, tenantSvc.ProviderS3, svc.lastCreate.Settings.Storage.Provider)

	var got tenantSvc.Tenant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "tenant-1", got.ID)
}

func TestTenantHandler_CreateErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"malformed body", `{"code":`, nil, http.StatusBadRequest},
		{"missing name", `{"code":"ACME"}`, nil, http.StatusBadRequest},
		{"duplicate code", `{"code":"ACME","name":"Acme"}`, tenantSvc.ErrCodeConflict, http.StatusConflict},
		{"invalid settings", `{"code":"ACME","name":"Acme"}`, tenantSvc.ErrInvalidInput, http.StatusBadRequest},
		{"store failure", `{"code":"ACME","name":"Acme"}`, assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(NewTenantHandler(&fakeTenantService{createErr: tt.err}, nil, nil))
			w := doJSON(r, http.MethodPost, "/api/tenants", tt.body)
			assert.Equal(t, tt.status, w.Code)

			var body common.ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "An internal error occurred", body.Error)
			}
		})
	}
}

func TestTenantHandler_Lookups(t *testing.T) {
	r := setupRouter(NewTenantHandler(&fakeTenantService{}, nil, nil))

	w := doJSON(r, http.MethodGet, "/api/tenants/tenant-1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/tenants/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/tenants/code/ACME", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"ACME"`)

	w = doJSON(r, http.MethodGet, "/api/tenants/code/GHOST", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/tenants", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []tenantSvc.Tenant `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Items, 2)
}

func TestTenantHandler_UpdateAndDelete(t *testing.T) {
	svc := &fakeTenantService{}
	r := setupRouter(NewTenantHandler(svc, nil, nil))

	w := doJSON(r, http.MethodPut, "/api/tenants/tenant-1", `{"name":"Acme Academy","isActive":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastUpdate.IsActive)
	assert.False(t, *svc.lastUpdate.IsActive)
	assert.Nil(t, svc.lastUpdate.Settings)

	w = doJSON(r, http.MethodPut, "/api/tenants/nope", `{"name":"Other"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/tenants/tenant-1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"tenant-1"}, svc.deleted)
}

func TestTenantHandler_WarmCache(t *testing.T) {
	r := setupRouter(NewTenantHandler(&fakeTenantService{}, nil, nil))
	w := doJSON(r, http.MethodPost, "/api/tenants/cache/warmup", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	q := &fakeQueue{}
	r = setupRouter(NewTenantHandler(&fakeTenantService{}, q, nil))
	w = doJSON(r, http.MethodPost, "/api/tenants/cache/warmup", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"system"}, q.warmups)
}
