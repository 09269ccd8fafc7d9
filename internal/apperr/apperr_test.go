package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("apply: %w", ErrNotMember)
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.True(t, errors.Is(err, ErrNotMember))
	assert.False(t, errors.Is(err, ErrForbidden))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, KindOf(errors.New("boom")).HTTPStatus())
}

func TestStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindNotFound:     http.StatusNotFound,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindConflict:     http.StatusConflict,
	}
	for k, status := range cases {
		assert.Equal(t, status, k.HTTPStatus(), k.String())
	}
}

func TestFieldsOf(t *testing.T) {
	err := Validation("bad input", "card", "cvv")
	assert.Equal(t, []string{"card", "cvv"}, FieldsOf(err))
	assert.Equal(t, []string{"role_to_assign_id"}, FieldsOf(ErrInvalidRole))
	assert.Nil(t, FieldsOf(errors.New("x")))
}
