package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("purchase: %w", Capacity("insufficient capacity: 0 tickets left"))

	assert.Equal(t, KindCapacity, KindOf(err))
	assert.Equal(t, "insufficient capacity: 0 tickets left", Message(err))
	assert.Equal(t, http.StatusConflict, Status(KindOf(err)))
}

func TestUnclassifiedErrorIsInternal(t *testing.T) {
	err := errors.New("connection reset by peer")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "An unknown error occurred.", Message(err))
	assert.Equal(t, http.StatusInternalServerError, Status(KindOf(err)))
	assert.Nil(t, Fields(err))
}

func TestStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:     http.StatusBadRequest,
		KindAuthentication: http.StatusUnauthorized,
		KindAuthorization:  http.StatusForbidden,
		KindNotFound:       http.StatusNotFound,
		KindState:          http.StatusConflict,
	}
	for kind, want := range cases {
		assert.Equal(t, want, Status(kind))
	}
}
