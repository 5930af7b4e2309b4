package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"

	"eventgo/globals"
	"eventgo/models"
	"eventgo/utils"
)

// JWT claims
type Claims struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Image  string `json:"image,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() models.Identity {
	return models.Identity{ID: c.UserID, Name: c.Name, Email: c.Email, Role: c.Role, Image: c.Image}
}

// Revoker reports tokens ended by logout before their expiry.
type Revoker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Auth issues and verifies session tokens with one HMAC key.
type Auth struct {
	secret  []byte
	ttl     time.Duration
	revoked Revoker
	now     func() time.Time
}

func NewAuth(secret []byte, ttl time.Duration, revoked Revoker) *Auth {
	return &Auth{secret: secret, ttl: ttl, revoked: revoked, now: time.Now}
}

func (a *Auth) TTL() time.Duration { return a.ttl }

// IssueToken signs a token for id and returns it with its claims.
func (a *Auth) IssueToken(id models.Identity) (string, *Claims, error) {
	now := a.now()
	claims := &Claims{
		UserID: id.ID,
		Name:   id.Name,
		Email:  id.Email,
		Role:   id.Role,
		Image:  id.Image,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utils.GetUUID(),
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

var ErrRevoked = errors.New("token revoked")

// ParseToken verifies signature, algorithm, expiry and revocation.
func (a *Auth) ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("unauthorized: invalid token")
	}
	if a.revoked != nil {
		revoked, err := a.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			log.Printf("revocation check for %s failed: %v", claims.ID, err)
		} else if revoked {
			return nil, ErrRevoked
		}
	}
	return claims, nil
}

// TokenFromRequest reads the bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return ""
	}
	if c, err := r.Cookie(globals.SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

type claimsKey struct{}

// ClaimsFromContext returns the verified claims of an authenticated request.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

func withClaims(r *http.Request, claims *Claims) *http.Request {
	ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
	ctx = context.WithValue(ctx, globals.IdentityKey, claims.Identity())
	ctx = context.WithValue(ctx, claimsKey{}, claims)
	return r.WithContext(ctx)
}

func (a *Auth) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := TokenFromRequest(r)
		if tokenString == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required.")
			return
		}
		claims, err := a.ParseToken(r.Context(), tokenString)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired session.")
			return
		}
		next(w, withClaims(r, claims), ps)
	}
}

// OptionalAuth attaches the identity when a valid token is present and
// proceeds anonymously otherwise.
func (a *Auth) OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if tokenString := TokenFromRequest(r); tokenString != "" {
			if claims, err := a.ParseToken(r.Context(), tokenString); err == nil {
				r = withClaims(r, claims)
			}
		}
		next(w, r, ps)
	}
}

func (a *Auth) RequireAdmin(next httprouter.Handle) httprouter.Handle {
	return a.Authenticate(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if role, _ := r.Context().Value(globals.RoleKey).(string); role != globals.RoleAdmin {
			utils.RespondWithError(w, http.StatusForbidden, "Admin access required.")
			return
		}
		next(w, r, ps)
	})
}
