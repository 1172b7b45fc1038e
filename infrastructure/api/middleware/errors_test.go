package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixml/careerpath/domain/errs"
)

func TestAPIError(t *testing.T) {
	cause := errors.New("strconv: parsing \"abc\"")
	err := NewAPIError(http.StatusBadRequest, "user id must be a positive integer", cause)

	assert.Equal(t, http.StatusBadRequest, err.Code())
	assert.Equal(t, "user id must be a positive integer", err.Message())
	assert.Equal(t, `api error 400: user id must be a positive integer: strconv: parsing "abc"`, err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewAPIError(http.StatusNotFound, "no such user", nil)
	assert.Equal(t, "api error 404: no such user", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestAuthenticationError(t *testing.T) {
	err := NewAuthenticationError("invalid API key")

	assert.Equal(t, "authentication failed: invalid API key", err.Error())
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.ErrorIs(t, fmt.Errorf("career-event: %w", err), ErrAuthentication)
}

func TestCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewAuthenticationError("missing key"), "unauthenticated"},
		{errs.Validationf("top_k must be positive"), "validation"},
		{fmt.Errorf("user 3: %w", errs.ErrNotFound), "not_found"},
		{errs.ErrRetrievalEmpty, "retrieval_empty"},
		{errs.ErrRankingEmpty, "ranking_empty"},
		{errs.ModelUnavailable("ranker", errors.New("no artifact")), "model_unavailable"},
		{errs.ErrUpstreamTimeout, "upstream_timeout"},
		{io.ErrUnexpectedEOF, "malformed_request"},
		{NewAPIError(http.StatusBadRequest, "bad limit", nil), ""},
		{errors.New("disk full"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, CodeFor(tt.err))
		})
	}
}
