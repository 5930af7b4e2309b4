package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventgo/globals"
	"eventgo/models"
	"eventgo/utils"
)

var alice = models.Identity{ID: "665f1c2b9d3e4a0012345678", Name: "Alice", Email: "alice@example.com", Role: globals.RoleUser}

type revokedSet map[string]bool

func (s revokedSet) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s[jti], nil
}

func echoIdentity(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := utils.GetIdentityFromRequest(r)
	if !ok {
		utils.SendResponse(w, http.StatusOK, nil, "anonymous")
		return
	}
	utils.SendResponse(w, http.StatusOK, id, "ok")
}

func serve(h httprouter.Handle, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, r, nil)
	return w
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	a := NewAuth([]byte("secret"), time.Hour, nil)
	token, issued, err := a.IssueToken(alice)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := a.ParseToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, alice, claims.Identity())
	assert.Equal(t, issued.ID, claims.ID)
}

func TestParseRejectsBadTokens(t *testing.T) {
	a := NewAuth([]byte("secret"), time.Hour, nil)
	token, _, err := a.IssueToken(alice)
	require.NoError(t, err)

	other := NewAuth([]byte("other"), time.Hour, nil)
	_, err = other.ParseToken(context.Background(), token)
	assert.Error(t, err, "wrong key")

	expired := NewAuth([]byte("secret"), time.Hour, nil)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.IssueToken(alice)
	require.NoError(t, err)
	_, err = a.ParseToken(context.Background(), old)
	assert.Error(t, err, "expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: alice.ID})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = a.ParseToken(context.Background(), unsigned)
	assert.Error(t, err, "alg none")
}

func TestRevokedTokenIsRejected(t *testing.T) {
	revoked := revokedSet{}
	a := NewAuth([]byte("secret"), time.Hour, revoked)
	token, claims, err := a.IssueToken(alice)
	require.NoError(t, err)

	revoked[claims.ID] = true
	_, err = a.ParseToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrRevoked)
}

func TestAuthenticate(t *testing.T) {
	a := NewAuth([]byte("secret"), time.Hour, nil)
	token, _, err := a.IssueToken(alice)
	require.NoError(t, err)
	h := a.Authenticate(echoIdentity)

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(h, r).Code)

	r = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := serve(h, r)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Data models.Identity `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, alice, res.Data)

	r = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.AddCookie(&http.Cookie{Name: globals.SessionCookie, Value: token})
	assert.Equal(t, http.StatusOK, serve(h, r).Code)

	r = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.Header.Set("Authorization", "Token "+token)
	assert.Equal(t, http.StatusUnauthorized, serve(h, r).Code)
}

func TestOptionalAuthProceedsAnonymously(t *testing.T) {
	a := NewAuth([]byte("secret"), time.Hour, nil)
	r := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	r.Header.Set("Authorization", "Bearer garbage")

	w := serve(a.OptionalAuth(echoIdentity), r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")
}

func TestRequireAdmin(t *testing.T) {
	a := NewAuth([]byte("secret"), time.Hour, nil)
	userToken, _, err := a.IssueToken(alice)
	require.NoError(t, err)
	admin := alice
	admin.Role = globals.RoleAdmin
	adminToken, _, err := a.IssueToken(admin)
	require.NoError(t, err)
	h := a.RequireAdmin(echoIdentity)

	r := httptest.NewRequest(http.MethodPost, "/api/tickets/validate", nil)
	r.Header.Set("Authorization", "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, serve(h, r).Code)

	r = httptest.NewRequest(http.MethodPost, "/api/tickets/validate", nil)
	r.Header.Set("Authorization", "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, serve(h, r).Code)
}
