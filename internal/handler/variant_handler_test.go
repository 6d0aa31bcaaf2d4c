package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadsync/timetable-api/internal/models"
	"github.com/acadsync/timetable-api/internal/service"
	appErrors "github.com/acadsync/timetable-api/pkg/errors"
)

type fakeSolver struct {
	listings   []models.Variant
	details    map[string]*models.Variant
	approveErr error
	generated  []models.Scope
}

func (f *fakeSolver) ListSolutions(ctx context.Context, scope models.Scope) ([]models.Variant, error) {
	out := make([]models.Variant, len(f.listings))
	copy(out, f.listings)
	return out, nil
}

func (f *fakeSolver) GetSolution(ctx context.Context, id string) (*models.Variant, error) {
	detail, ok := f.details[id]
	if !ok {
		return nil, appErrors.ErrVariantNotFound
	}
	cp := *detail
	return &cp, nil
}

func (f *fakeSolver) Approve(ctx context.Context, id string) error {
	return f.approveErr
}

func (f *fakeSolver) Generate(ctx context.Context, scope models.Scope) error {
	f.generated = append(f.generated, scope)
	return nil
}

func sampleHydrated(id string, rank int) *models.Variant {
	grid := models.Grid{Periods: map[models.PeriodKey]string{1: "09:00-10:00"}}
	grid.SetSlot(models.Monday, 1, models.Slot{Subject: "Algorithms", Room: "CR-101"})
	return &models.Variant{
		ID:            id,
		Rank:          rank,
		ApprovalState: models.ApprovalPending,
		Sections:      map[string]*models.ScheduleEntity{"sec-a": {ID: "sec-a", Name: "CS-3A", Grid: grid}},
		Faculty:       map[string]*models.ScheduleEntity{},
		SectionOrder:  []string{"sec-a"},
	}
}

func newVariantRouter(solver *fakeSolver) (*gin.Engine, *service.VariantService) {
	gin.SetMode(gin.TestMode)
	variants := service.NewVariantService(solver, nil, nil, service.VariantConfig{}, zap.NewNop())
	handler := NewVariantHandler(variants)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.GET("/scopes/:course/:year/:semester/variants", handler.List)
	v1.GET("/variants/:id", handler.Get)
	v1.POST("/variants/:id/approve", handler.Approve)
	v1.POST("/generate", handler.Generate)
	return router, variants
}

func TestVariantHandlerListSorted(t *testing.T) {
	solver := &fakeSolver{listings: []models.Variant{
		{ID: "v2", Rank: 2},
		{ID: "v1", Rank: 1, ApprovalState: models.ApprovalApproved},
	}}
	router, _ := newVariantRouter(solver)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scopes/BTECH-CSE/3/5/variants", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []struct {
			ID   string `json:"id"`
			Rank int    `json:"rank"`
		} `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "v1", envelope.Data[0].ID)
	assert.Equal(t, "v2", envelope.Data[1].ID)
	assert.Equal(t, "v1", envelope.Meta["approvedId"])
}

func TestVariantHandlerListRejectsBadScope(t *testing.T) {
	router, _ := newVariantRouter(&fakeSolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scopes/BTECH-CSE/three/5/variants", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVariantHandlerGetHydrates(t *testing.T) {
	solver := &fakeSolver{details: map[string]*models.Variant{"v1": sampleHydrated("v1", 1)}}
	router, _ := newVariantRouter(solver)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/variants/v1?course=BTECH-CSE&year=3&semester=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "CS-3A")
}

func TestVariantHandlerGetNotFound(t *testing.T) {
	router, _ := newVariantRouter(&fakeSolver{details: map[string]*models.Variant{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/variants/missing?course=BTECH-CSE&year=3&semester=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVariantHandlerApprove(t *testing.T) {
	solver := &fakeSolver{listings: []models.Variant{
		{ID: "v1", Rank: 1, ApprovalState: models.ApprovalApproved},
		{ID: "v2", Rank: 2},
	}}
	router, variants := newVariantRouter(solver)
	scope := models.Scope{Course: "BTECH-CSE", Year: 3, Semester: 5}

	_, err := variants.List(context.Background(), scope)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/variants/v2/approve?course=BTECH-CSE&year=3&semester=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v2", variants.ApprovedID(scope))
}

func TestVariantHandlerApproveRejected(t *testing.T) {
	solver := &fakeSolver{approveErr: appErrors.ErrApprovalRejected}
	router, _ := newVariantRouter(solver)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/variants/v1/approve?course=BTECH-CSE&year=3&semester=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestVariantHandlerGenerate(t *testing.T) {
	solver := &fakeSolver{}
	router, _ := newVariantRouter(solver)

	payload, _ := json.Marshal(map[string]interface{}{
		"course": "BTECH-CSE", "year": 3, "semester": 5,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, solver.generated, 1)
	assert.Equal(t, "BTECH-CSE", solver.generated[0].Course)
}
