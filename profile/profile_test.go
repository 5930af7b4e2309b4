package profile

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventgo/apperr"
	"eventgo/db"
	"eventgo/globals"
	"eventgo/middleware"
	"eventgo/models"
)

func seededService(t *testing.T) (*Service, *models.User) {
	t.Helper()
	store := db.NewMemory()
	u := &models.User{Name: "Alice", Email: "alice@example.com", Role: globals.RoleUser}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return &Service{Users: store, Tokens: middleware.NewAuth([]byte("secret"), time.Hour, nil)}, u
}

func strPtr(s string) *string { return &s }

func TestUpdateName(t *testing.T) {
	s, u := seededService(t)
	got, err := s.Update(context.Background(), u.ID, UpdateInput{Name: strPtr("  Alice Cooper ")})
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", got.Name)
	assert.Equal(t, globals.RoleUser, got.Role)
}

func TestUpdateRejectsRoleChange(t *testing.T) {
	s, u := seededService(t)
	_, err := s.Update(context.Background(), u.ID, UpdateInput{Role: strPtr(globals.RoleAdmin)})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	got, err := s.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, globals.RoleUser, got.Role)
}

func TestUpdateNormalizesAvatar(t *testing.T) {
	s, u := seededService(t)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 800, 800))))
	avatar := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	got, err := s.Update(context.Background(), u.ID, UpdateInput{Image: &avatar})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.Image, "data:image/jpeg;base64,"))

	_, err = s.Update(context.Background(), u.ID, UpdateInput{Image: strPtr("data:image/svg+xml;base64,PHN2Zz4=")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, apperr.Fields(err), "image")
}

func TestEditProfileHandlerReturnsFreshToken(t *testing.T) {
	s, u := seededService(t)
	token, _, err := s.Tokens.IssueToken(u.Identity())
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(`{"name":"Ally"}`))
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.Tokens.Authenticate(s.EditProfile)(w, r, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Ally"`)
	assert.Contains(t, w.Body.String(), `"token":"`)
}

func TestGetProfileUnknownUser(t *testing.T) {
	s, _ := seededService(t)
	_, err := s.Get(context.Background(), db.NewID())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
