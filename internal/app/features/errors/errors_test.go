package errors_test

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/hypertube/internal/app/features/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) uierrors.Response {
	t.Helper()
	var body uierrors.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLogServerError_HidesInternalError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := uierrors.NewErrorLogger(zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := httptest.NewRecorder()
	e.LogServerError(rec, req, "load user failed", stderrors.New("socket closed at 10.0.0.4"), "Server error")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "10.0.0.4")
	assert.Equal(t, "Server error", decode(t, rec).Msg)

	entries := logs.FilterMessage("load user failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/api/users/me", entries[0].ContextMap()["path"])
}

func TestLogBadRequest(t *testing.T) {
	e := uierrors.NewErrorLogger(zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/users/image", nil)
	rec := httptest.NewRecorder()
	e.LogBadRequest(rec, req, "bad upload", stderrors.New("nope"), "Invalid Profile Image")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid Profile Image", decode(t, rec).Msg)
}

func TestValidation_IncludesFields(t *testing.T) {
	e := uierrors.NewErrorLogger(zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/users/update", nil)
	rec := httptest.NewRecorder()
	e.Validation(rec, req, "Please fill the form with correct informations", map[string]string{
		"email": "A valid email address is required.",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "A valid email address is required.", body.Errors["email"])
}

func TestNotFound_OmitsErrors(t *testing.T) {
	e := uierrors.NewErrorLogger(zap.NewNop())

	rec := httptest.NewRecorder()
	e.NotFound(rec, httptest.NewRequest(http.MethodGet, "/api/users/info/x", nil), "User not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"msg":"User not found"}`, rec.Body.String())
}
