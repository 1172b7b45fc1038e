package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/infrastructure/api/jsonapi"
)

func TestStatusFor(t *testing.T) {
	var syntaxErr error = &json.SyntaxError{}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", errs.Validationf("essay too short"), http.StatusUnprocessableEntity},
		{"wrapped validation", fmt.Errorf("infer: %w", errs.ErrValidation), http.StatusUnprocessableEntity},
		{"malformed json", syntaxErr, http.StatusBadRequest},
		{"empty body", io.EOF, http.StatusBadRequest},
		{"not found", errs.ErrNotFound, http.StatusNotFound},
		{"retrieval empty", fmt.Errorf("user 1: %w", errs.ErrRetrievalEmpty), http.StatusNotFound},
		{"ranking empty", errs.ErrRankingEmpty, http.StatusInternalServerError},
		{"model unavailable", errs.ModelUnavailable("encoder", errors.New("missing")), http.StatusServiceUnavailable},
		{"upstream timeout", errs.ErrUpstreamTimeout, http.StatusGatewayTimeout},
		{"auth", NewAuthenticationError("missing key"), http.StatusUnauthorized},
		{"api error", NewAPIError(http.StatusConflict, "conflict", nil), http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func writeError(t *testing.T, err error) (int, jsonapi.Error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/recs/top_careers", nil)
	w := httptest.NewRecorder()
	WriteError(w, req, err, nil)

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var doc jsonapi.Document
	require.NoError(t, json.NewDecoder(w.Body).Decode(&doc))
	require.Len(t, doc.Errors, 1)
	return w.Code, doc.Errors[0]
}

func TestWriteError_ClientError(t *testing.T) {
	code, e := writeError(t, errs.Validationf("essay_text must have at least 5 characters"))

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "422", e.Status)
	assert.Equal(t, "validation", e.Code)
	assert.Equal(t, "Unprocessable Entity", e.Title)
	assert.Contains(t, e.Detail, "at least 5 characters")
}

func TestWriteError_MasksInternalDetail(t *testing.T) {
	code, e := writeError(t, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal server error", e.Detail)
	assert.Equal(t, "internal", e.Code)
	assert.False(t, strings.Contains(e.Detail, "password"))
}

func TestWriteError_KeepsPipelineDetail(t *testing.T) {
	code, e := writeError(t, fmt.Errorf("user 4: %w", errs.ErrRankingEmpty))

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, e.Detail, "ranking produced no results")
	assert.Equal(t, "ranking_empty", e.Code)
}

func TestWriteError_APIErrorMessage(t *testing.T) {
	code, e := writeError(t, NewAPIError(http.StatusBadRequest, "user id must be a positive integer", errors.New("strconv")))

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "user id must be a positive integer", e.Detail)
}
