package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/astroview/hubble-pipeline/internal/workflows"
)

func newTestHandler() *AsyncHandler {
	// A runner without a durable runtime still exercises request validation
	return NewAsyncHandler(workflows.NewWorkflowRunner(nil), nil, zap.NewNop())
}

func TestComposeRejectsNonPOST(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	h.HandleComposeAsync(rec, httptest.NewRequest(http.MethodGet, "/v1/compose", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestComposeRejectsBadJSON(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	h.HandleComposeAsync(rec, httptest.NewRequest(http.MethodPost, "/v1/compose", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComposeRequiresTarget(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	h.HandleComposeAsync(rec, httptest.NewRequest(http.MethodPost, "/v1/compose", strings.NewReader(`{"radius_deg": 0.1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "target")
}

func TestComposeWithoutRuntimeFails(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	h.HandleComposeAsync(rec, httptest.NewRequest(http.MethodPost, "/v1/compose", strings.NewReader(`{"target": "M51"}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatusRejectsNonGET(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodPost, "/v1/runs/abc", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatusRequiresRunID(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
