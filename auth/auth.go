package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"

	"eventgo/apperr"
	"eventgo/db"
	"eventgo/globals"
	"eventgo/middleware"
	"eventgo/models"
	"eventgo/utils"
)

// TokenRevoker ends a token before its expiry.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

type Service struct {
	Users   db.UserStore
	Tokens  *middleware.Auth
	Revoker TokenRevoker
	// IsAdmin decides the role of new accounts from their email.
	IsAdmin      func(email string) bool
	SecureCookie bool
}

type RegisterInput struct {
	Name     string `json:"name" validate:"min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	if _, err := s.Users.UserByEmail(ctx, in.Email); err == nil {
		return nil, apperr.Conflict("A user with this email already exists.")
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash password for %s: %v", in.Email, err)
		return nil, err
	}

	role := globals.RoleUser
	if s.IsAdmin != nil && s.IsAdmin(in.Email) {
		role = globals.RoleAdmin
	}
	now := time.Now().UTC()
	u := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.Conflict("A user with this email already exists.")
		}
		return nil, err
	}
	log.Printf("Registered user %s (%s)", u.ID, u.Role)
	return u, nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	u, err := s.Users.UserByEmail(ctx, in.Email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.Authentication("Invalid email or password.")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperr.Authentication("Invalid email or password.")
	}
	return u, nil
}

func (s *Service) startSession(w http.ResponseWriter, u *models.User) (*Session, error) {
	token, _, err := s.Tokens.IssueToken(u.Identity())
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     globals.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.Tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return &Session{Token: token, User: *u}, nil
}

func (s *Service) revoke(ctx context.Context, claims *middleware.Claims) error {
	if claims == nil || claims.ExpiresAt == nil || s.Revoker == nil {
		return nil
	}
	return s.Revoker.RevokeToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

func (s *Service) endSession(ctx context.Context, w http.ResponseWriter, claims *middleware.Claims) error {
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     globals.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.SecureCookie,
	})
	return nil
}

// RegisterHandler handles POST /api/auth/register
func (s *Service) RegisterHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in RegisterInput
	if err := utils.DecodeJSON(w, r, &in, 1<<16); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	u, err := s.Register(r.Context(), in)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	sess, err := s.startSession(w, u)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusCreated, sess, "Registration successful")
}

// LoginHandler handles POST /api/auth/login
func (s *Service) LoginHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in LoginInput
	if err := utils.DecodeJSON(w, r, &in, 1<<16); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	u, err := s.Login(r.Context(), in)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	sess, err := s.startSession(w, u)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, sess, "Login successful")
}

// LogoutHandler handles POST /api/auth/logout
func (s *Service) LogoutHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	if err := s.endSession(r.Context(), w, claims); err != nil {
		log.Printf("Failed to revoke token: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to invalidate session")
		return
	}
	utils.SendResponse(w, http.StatusOK, nil, "Logged out successfully")
}

// RefreshHandler handles POST /api/auth/refresh. The new token reflects the
// stored user and the old one is revoked.
func (s *Service) RefreshHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}
	u, err := s.Users.UserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
			err = apperr.Authentication("Account no longer exists.")
		}
		utils.RespondWithErr(w, r, err)
		return
	}
	if err := s.revoke(r.Context(), claims); err != nil {
		log.Printf("Failed to revoke refreshed token %s: %v", claims.ID, err)
	}
	sess, err := s.startSession(w, u)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, sess, "Token refreshed successfully")
}

// MeHandler handles GET /api/auth/me
func (s *Service) MeHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	u, err := s.Users.UserByID(r.Context(), utils.GetUserIDFromRequest(r))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
			err = apperr.NotFound("User not found.")
		}
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, u, "")
}
