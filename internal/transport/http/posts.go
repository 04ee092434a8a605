package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/strogmv/myblog/internal/pkg/errors"
	"github.com/strogmv/myblog/internal/port"
)

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	resp, err := s.blog.ListPosts(r.Context(), page)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) postsByTag(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	resp, err := s.blog.ListPostsByTag(r.Context(), port.PostsByTagRequest{
		TagName:     r.URL.Query().Get("tagName"),
		PageRequest: page,
	})
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) searchPosts(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	resp, err := s.blog.SearchPosts(r.Context(), port.SearchRequest{
		Keyword:     r.URL.Query().Get("keyword"),
		PageRequest: page,
	})
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	resp, err := s.blog.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var req port.PostRequest
	if err := decodeJSON(r, &req); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	resp, err := s.blog.CreatePost(r.Context(), req)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	var req port.PostRequest
	if err := decodeJSON(r, &req); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	resp, err := s.blog.UpdatePost(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.blog.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) tagsOfPost(w http.ResponseWriter, r *http.Request) {
	resp, err := s.blog.TagsOf(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) addTags(w http.ResponseWriter, r *http.Request) {
	var req port.TagsRequest
	if err := decodeJSON(r, &req); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	resp, err := s.blog.AddTags(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	w.Header().Set("Post-ID", resp.ID)
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) removeTags(w http.ResponseWriter, r *http.Request) {
	var req port.TagsRequest
	if err := decodeJSON(r, &req); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	if err := s.blog.RemoveTags(r.Context(), chi.URLParam(r, "id"), req); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadMedia streams the raw request body to object storage.
func (s *Server) uploadMedia(w http.ResponseWriter, r *http.Request) {
	resp, err := s.blog.AttachMedia(r.Context(), port.MediaRequest{
		PostID:      chi.URLParam(r, "id"),
		Kind:        port.MediaKind(chi.URLParam(r, "kind")),
		ContentType: r.Header.Get("Content-Type"),
		Body:        r.Body,
	})
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}
