package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/strogmv/myblog/internal/pkg/errors"
	"github.com/strogmv/myblog/internal/port"
)

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	resp, err := s.blog.ListTags(r.Context(), page)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) getTag(w http.ResponseWriter, r *http.Request) {
	resp, err := s.blog.GetTag(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) createTags(w http.ResponseWriter, r *http.Request) {
	var req port.TagsRequest
	if err := decodeJSON(r, &req); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	resp, err := s.blog.CreateTags(r.Context(), req)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) renameTag(w http.ResponseWriter, r *http.Request) {
	var req port.TagsRequest
	if err := decodeJSON(r, &req); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	resp, err := s.blog.RenameTag(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.blog.DeleteTag(r.Context(), chi.URLParam(r, "id")); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
