package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/strogmv/myblog/internal/pkg/errors"
	"github.com/strogmv/myblog/internal/port"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req port.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	resp, err := s.auth.Register(r.Context(), req)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req port.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	resp, err := s.auth.Login(r.Context(), req)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// logout revokes whatever bearer token was presented, valid or not.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	resp, err := s.auth.GetUser(r.Context(), PrincipalFrom(r.Context()).UserID)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) mySessions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.auth.ListSessions(r.Context(), PrincipalFrom(r.Context()).UserID)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	resp, err := s.auth.ListUsers(r.Context(), page)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	resp, err := s.auth.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
