package http

import (
	"log/slog"
	"net/http"

	"github.com/strogmv/myblog/internal/pkg/errors"
	"github.com/strogmv/myblog/internal/pkg/logger"
)

var ErrNotReady = errors.New(http.StatusServiceUnavailable, "Service Unavailable", "Search index is still being built").WithCode("NOT_READY")

func (s *Server) tagReport(w http.ResponseWriter, r *http.Request) {
	usage, err := s.blog.TagUsage(r.Context())
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	doc, err := s.reports.TagUsageReport(usage)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="tags.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		logger.From(r.Context()).Warn("write report", slog.Any("error", err))
	}
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz turns green once the first full reindex has finished.
func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if !s.search.Ready() {
		errors.WriteError(w, r, ErrNotReady)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
