package events

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"eventgo/apperr"
	"eventgo/globals"
	"eventgo/utils"
)

const maxEventBody = 16 << 20

// GetEvents handles GET /api/events?includePast=&mine=&page=&limit=
func (s *Service) GetEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := ListOptions{
		IncludePast: utils.ParseBool(r, "includePast"),
		Skip:        skip,
		Limit:       limit,
	}
	if utils.ParseBool(r, "mine") {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithErr(w, r, apperr.Authentication("Sign in to list your events."))
			return
		}
		opts.CreatedBy = userID
	}

	events, err := s.List(r.Context(), opts)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, events, "")
}

// GetEvent handles GET /api/events/:eventid
func (s *Service) GetEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e, err := s.Get(r.Context(), ps.ByName("eventid"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, e, "")
}

// CreateEvent handles POST /api/events
func (s *Service) CreateEvent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in EventInput
	if err := utils.DecodeJSON(w, r, &in, maxEventBody); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	actor, _ := utils.GetIdentityFromRequest(r)
	e, err := s.Create(r.Context(), actor, in)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusCreated, e, "Event created successfully")
}

// EditEvent handles PUT /api/events/:eventid
func (s *Service) EditEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in EventInput
	if err := utils.DecodeJSON(w, r, &in, maxEventBody); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	actor, _ := utils.GetIdentityFromRequest(r)
	e, err := s.Update(r.Context(), actor, ps.ByName("eventid"), in)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, e, "Event updated successfully")
}

// EditGallery handles PUT /api/events/:eventid/gallery
func (s *Service) EditGallery(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in struct {
		Images []string `json:"images"`
	}
	if err := utils.DecodeJSON(w, r, &in, maxEventBody); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	actor, _ := utils.GetIdentityFromRequest(r)
	e, err := s.UpdateGallery(r.Context(), actor, ps.ByName("eventid"), in.Images)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, e, "Gallery updated")
}

// DeleteEvent handles DELETE /api/events/:eventid
func (s *Service) DeleteEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := utils.GetIdentityFromRequest(r)
	if err := s.Delete(r.Context(), actor, ps.ByName("eventid")); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, nil, "Event deleted successfully")
}

// GetAvailability handles GET /api/events/:eventid/availability
func (s *Service) GetAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	av, err := s.Availability(r.Context(), ps.ByName("eventid"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, av, "")
}

// WatchAccess reports whether eventID names a stored event and whether the
// caller is its creator or an admin.
func (s *Service) WatchAccess(r *http.Request, eventID string) (found, staff bool) {
	e, err := s.Get(r.Context(), eventID)
	if err != nil {
		return false, false
	}
	actor, _ := utils.GetIdentityFromRequest(r)
	return true, actor.Role == globals.RoleAdmin || e.IsCreator(actor.ID)
}
