package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lcalzada-xor/cvelens/internal/adapters/web"
	"github.com/lcalzada-xor/cvelens/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

func TestArtifactHandler_HandleList(t *testing.T) {
	store := new(web.MockArtifactStore)
	svc := new(web.MockPredictionService)
	store.On("ListArtifacts", mock.Anything, 50).Return([]domain.ArtifactInfo{{ID: "a2"}, {ID: "a1"}}, nil)
	svc.On("Info").Return(domain.ArtifactInfo{ID: "a1"}, true)

	rec := httptest.NewRecorder()
	NewArtifactHandler(store, svc, nil).HandleList(rec, httptest.NewRequest(http.MethodGet, "/api/artifacts", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"serving":"a1"`)
	assert.Contains(t, rec.Body.String(), `"id":"a2"`)
}

func TestArtifactHandler_HandleReload(t *testing.T) {
	store := new(web.MockArtifactStore)
	svc := new(web.MockPredictionService)
	audit := new(web.MockAuditRepository)

	svc.On("Reload", mock.Anything, "").Return(domain.ArtifactInfo{ID: "latest"}, nil)
	svc.On("Reload", mock.Anything, "a1").Return(domain.ArtifactInfo{ID: "a1"}, nil)
	svc.On("Reload", mock.Anything, "gone").Return(domain.ArtifactInfo{}, domain.ErrArtifactNotFound)
	svc.On("Reload", mock.Anything, "bad").Return(domain.ArtifactInfo{}, errors.New("corrupt"))
	audit.On("SaveAuditLog", mock.Anything, mock.MatchedBy(func(l domain.AuditLog) bool {
		return l.Action == domain.ActionArtifactReload && l.Actor == "admin@test"
	})).Return(nil)

	var reloaded []string
	h := NewArtifactHandler(store, svc, audit)
	h.OnReload = func(info domain.ArtifactInfo) { reloaded = append(reloaded, info.ID) }

	call := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/reload", strings.NewReader(body))
		req = req.WithContext(context.WithValue(req.Context(), middleware.ActorContextKey, "admin@test"))
		rec := httptest.NewRecorder()
		h.HandleReload(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("").Code)
	rec := call(`{"artifact_id":"a1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"a1"`)
	assert.Equal(t, http.StatusNotFound, call(`{"artifact_id":"gone"}`).Code)
	assert.Equal(t, http.StatusInternalServerError, call(`{"artifact_id":"bad"}`).Code)
	assert.Equal(t, http.StatusBadRequest, call(`{`).Code)

	assert.Equal(t, []string{"latest", "a1"}, reloaded)
	audit.AssertNumberOfCalls(t, "SaveAuditLog", 2)
}

func TestArtifactHandler_HandleAuditLogs(t *testing.T) {
	audit := new(web.MockAuditRepository)
	audit.On("ListAuditLogs", mock.Anything, 100).Return([]domain.AuditLog{{Actor: "cli", Action: domain.ActionTrain}}, nil)

	rec := httptest.NewRecorder()
	NewArtifactHandler(nil, nil, audit).HandleAuditLogs(rec, httptest.NewRequest(http.MethodGet, "/api/admin/audit", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"action":"TRAIN"`)

	rec = httptest.NewRecorder()
	NewArtifactHandler(nil, nil, nil).HandleAuditLogs(rec, httptest.NewRequest(http.MethodGet, "/api/admin/audit", nil))
	assert.JSONEq(t, `{"logs":[]}`, rec.Body.String())
}
