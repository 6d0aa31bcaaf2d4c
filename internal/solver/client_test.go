package solver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadsync/timetable-api/internal/models"
	appErrors "github.com/acadsync/timetable-api/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL, SessionCookie: "session=abc123"}, nil)
}

func TestListSolutions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/solutions", r.URL.Path)
		assert.Equal(t, "BTECH-CS", r.URL.Query().Get("course"))
		assert.Equal(t, "3", r.URL.Query().Get("year"))
		assert.Equal(t, "session=abc123", r.Header.Get("Cookie"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"solutions": []map[string]interface{}{
				{"id": "v1", "rank": 1, "fitnessScore": 97.2, "approvalState": "PENDING"},
				{"id": "v2", "rank": 2, "fitnessScore": 91.5, "approvalState": "PENDING"},
			},
		})
	})

	variants, err := client.ListSolutions(context.Background(), models.Scope{Course: "BTECH-CS", Year: 3, Semester: 2})
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, "v1", variants[0].ID)
	assert.InDelta(t, 97.2, variants[0].FitnessScore, 0.001)
	assert.False(t, variants[0].Hydrated(), "list payloads must stay summaries")
}

func TestGetSolutionHydratesGrids(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/solutions/v1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":   "v1",
			"rank": 1,
			"sections": map[string]interface{}{
				"s1": map[string]interface{}{
					"id":   "s1",
					"name": "CS-3A",
					"grid": map[string]interface{}{
						"periods": map[string]string{"1": "09:00-09:50"},
						"timetable": map[string]interface{}{
							"MONDAY": map[string]interface{}{
								"1": map[string]string{"subject": "COMPUTER NETWORKS", "room": "A-201"},
							},
						},
					},
				},
			},
			"faculty": map[string]interface{}{},
		})
	})

	variant, err := client.GetSolution(context.Background(), "v1")
	require.NoError(t, err)
	assert.True(t, variant.Hydrated())

	entity, ok := variant.Entity(models.EntityKindSection, "s1")
	require.True(t, ok)
	assert.Equal(t, "COMPUTER NETWORKS", entity.Grid.Slot(models.Monday, 1).Subject)
}

func TestGetSolutionNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such solution", http.StatusNotFound)
	})

	_, err := client.GetSolution(context.Background(), "missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrVariantNotFound))
}

func TestApproveSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/solutions/approve", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "v2", body["solutionId"])

		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})

	assert.NoError(t, client.Approve(context.Background(), "v2"))
}

func TestApproveRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"success": false})
	})
	err := client.Approve(context.Background(), "v2")
	assert.True(t, appErrors.Is(err, appErrors.ErrApprovalRejected))
}

func TestApproveConflictStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "already approved elsewhere", http.StatusConflict)
	})
	err := client.Approve(context.Background(), "v2")
	assert.True(t, appErrors.Is(err, appErrors.ErrApprovalRejected))
}

func TestUpdateSectionSendsFullEntity(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/sectionUpdate", r.URL.Path)

		var entity models.ScheduleEntity
		require.NoError(t, json.NewDecoder(r.Body).Decode(&entity))
		assert.Equal(t, "CS-3A", entity.Name)
		w.WriteHeader(http.StatusOK)
	})

	err := client.UpdateSection(context.Background(), &models.ScheduleEntity{ID: "s1", Name: "CS-3A"})
	assert.NoError(t, err)
}

func TestGenerate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "BTECH-CS", body["course"])
		w.WriteHeader(http.StatusAccepted)
	})

	err := client.Generate(context.Background(), models.Scope{Course: "BTECH-CS", Year: 3, Semester: 2})
	assert.NoError(t, err)
}

func TestNetworkFailureMapsToSolverUnavailable(t *testing.T) {
	client := New(Config{BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := client.ListSolutions(context.Background(), models.Scope{Course: "X", Year: 1, Semester: 1})
	assert.True(t, appErrors.Is(err, appErrors.ErrSolverUnavailable))
}
