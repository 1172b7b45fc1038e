package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationf(t *testing.T) {
	err := Validationf("essay too short: %d < %d", 3, 10)

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation error: essay too short: 3 < 10", err.Error())
}

func TestModelUnavailable(t *testing.T) {
	cause := errors.New("open heads.json: no such file")
	err := ModelUnavailable("encoder/vi", cause)

	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("startup: %w", ModelUnavailable("ranker", nil))
	assert.ErrorIs(t, wrapped, ErrModelUnavailable)
	assert.Equal(t, "startup: model unavailable: ranker", wrapped.Error())
}
