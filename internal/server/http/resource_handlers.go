package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/family-office/internal/errs"
	"github.com/and161185/family-office/internal/model"
	"github.com/and161185/family-office/internal/service"
)

// actorFrom builds the service actor from the guard-attached session.
func actorFrom(r *http.Request) (service.Actor, bool) {
	id, p, ok := currentUserID(r)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{UserID: id, EmailVerified: p.User.EmailVerified}, true
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.FromString(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a UUID: %w", name, errs.ErrValidation)
	}
	return id, nil
}

// teamScope extracts the actor, team and type shared by every resource route.
func (s *Server) teamScope(w http.ResponseWriter, r *http.Request) (service.Actor, uuid.UUID, model.ResourceType, bool) {
	a, ok := actorFrom(r)
	if !ok {
		writeError(w, r, s.log, errs.ErrUnauthorized)
		return service.Actor{}, uuid.Nil, "", false
	}
	teamID, err := pathUUID(r, "teamID")
	if err != nil {
		writeError(w, r, s.log, err)
		return service.Actor{}, uuid.Nil, "", false
	}
	return a, teamID, model.ResourceType(r.PathValue("type")), true
}

func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	a, teamID, t, ok := s.teamScope(w, r)
	if !ok {
		return
	}
	items, err := s.res.List(r.Context(), a, teamID, t)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) createResource(w http.ResponseWriter, r *http.Request) {
	a, teamID, t, ok := s.teamScope(w, r)
	if !ok {
		return
	}
	var f service.Fields
	if err := decodeJSON(r, &f); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	item, err := s.res.Create(r.Context(), a, teamID, t, f)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) deleteResource(w http.ResponseWriter, r *http.Request) {
	a, teamID, t, ok := s.teamScope(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.res.Delete(r.Context(), a, teamID, t, id); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dashboardView struct {
	Team    teamView                     `json:"team"`
	Counts  map[model.ResourceType]int64 `json:"counts"`
	Section model.ResourceType           `json:"section,omitempty"`
	Items   any                          `json:"items,omitempty"`
}

type teamView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// dashboard serves the team overview; a section also lists that section's records.
func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	a, ok := actorFrom(r)
	if !ok {
		http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
		return
	}
	if !a.EmailVerified {
		http.Redirect(w, r, "/verify-email", http.StatusSeeOther)
		return
	}
	sum, err := s.res.Summary(r.Context(), a)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	view := dashboardView{
		Team:   teamView{ID: sum.Team.ID.String(), Name: sum.Team.Name},
		Counts: sum.Counts,
	}
	if section := r.PathValue("section"); section != "" {
		t := model.ResourceType(section)
		if !t.Valid() {
			writeError(w, r, s.log, errs.ErrNotFound)
			return
		}
		items, err := s.res.List(r.Context(), a, sum.Team.ID, t)
		if err != nil {
			writeError(w, r, s.log, err)
			return
		}
		view.Section, view.Items = t, items
	}
	writeJSON(w, http.StatusOK, view)
}
