package profile

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"eventgo/apperr"
	"eventgo/db"
	"eventgo/filemgr"
	"eventgo/middleware"
	"eventgo/models"
	"eventgo/utils"
)

type Service struct {
	Users  db.UserStore
	Tokens *middleware.Auth
}

// UpdateInput carries the editable profile fields. Role is decoded only to
// reject attempts to change it.
type UpdateInput struct {
	Name  *string `json:"name" validate:"omitempty,min=2"`
	Image *string `json:"image"`
	Role  *string `json:"role"`
}

type Updated struct {
	User  models.User `json:"user"`
	Token string      `json:"token,omitempty"`
}

func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.Users.UserByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
		return nil, apperr.NotFound("User not found.")
	}
	return u, err
}

func (s *Service) Update(ctx context.Context, userID string, in UpdateInput) (*models.User, error) {
	if in.Role != nil {
		return nil, apperr.Authorization("Role cannot be changed.")
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	upd := models.UserUpdate{Name: in.Name}
	if in.Image != nil {
		img, err := filemgr.NormalizeImage(*in.Image, filemgr.PicAvatar)
		if err != nil {
			return nil, apperr.ValidationFields("Invalid data.", map[string][]string{"image": {err.Error()}})
		}
		upd.Image = &img
	}

	u, err := s.Users.UpdateUser(ctx, userID, upd)
	if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
		return nil, apperr.NotFound("User not found.")
	}
	return u, err
}

// GetProfile handles GET /api/profile
func (s *Service) GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	u, err := s.Get(r.Context(), utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, u, "")
}

// EditProfile handles PUT /api/profile and returns a token carrying the new
// name and image.
func (s *Service) EditProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in UpdateInput
	if err := utils.DecodeJSON(w, r, &in, 8<<20); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	u, err := s.Update(r.Context(), utils.GetUserIDFromRequest(r), in)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	out := Updated{User: *u}
	if s.Tokens != nil {
		if out.Token, _, err = s.Tokens.IssueToken(u.Identity()); err != nil {
			utils.RespondWithErr(w, r, err)
			return
		}
	}
	utils.SendResponse(w, http.StatusOK, out, "Profile updated")
}
