package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventgo/apperr"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		query     string
		skip, lim int64
	}{
		{"", 0, 10},
		{"?page=3&limit=20", 40, 20},
		{"?page=0&limit=-4", 0, 10},
		{"?page=2&limit=1000", 100, 100},
		{"?page=abc", 0, 10},
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodGet, "/api/events"+c.query, nil)
		skip, limit := ParsePagination(r, 10, 100)
		assert.Equal(t, c.skip, skip, c.query)
		assert.Equal(t, c.lim, limit, c.query)
	}
}

type signup struct {
	Name  string `json:"name" validate:"min=2"`
	Email string `json:"email" validate:"required,email"`
	Inner struct {
		Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	} `json:"location"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	in := signup{Name: "A", Email: "nope"}
	in.Inner.Lat = 120

	err := Validate(in)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	fields := apperr.Fields(err)
	assert.Equal(t, []string{"Must be at least 2 characters."}, fields["name"])
	assert.Equal(t, []string{"Invalid email address."}, fields["email"])
	assert.Equal(t, []string{"Must be less than or equal to 90."}, fields["location.lat"])
}

func TestRespondWithErrHidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)

	RespondWithErr(w, r, errors.New("mongo: socket closed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var res Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.False(t, res.Success)
	assert.Equal(t, "An unknown error occurred.", res.Message)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, SplitList(" a@x.io, ,b@x.io "))
	assert.Nil(t, SplitList(""))
}
