package http

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/strogmv/myblog/internal/pkg/errors"
	"github.com/strogmv/myblog/internal/pkg/logger"
	"github.com/strogmv/myblog/internal/port"
)

var (
	ErrBodyRequired = errors.Validation("BODY_REQUIRED", "Request body is required")
	ErrMalformed    = errors.Validation("MALFORMED_BODY", "Request body is not valid JSON")
	ErrBadParameter = errors.Validation("BAD_PARAMETER", "Query parameter is invalid")
)

// decodeJSON reads one JSON document into out. Unknown fields are ignored.
func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return ErrBodyRequired
	}
	err := json.NewDecoder(r.Body).Decode(out)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, io.EOF):
		return ErrBodyRequired
	}
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.New(http.StatusRequestEntityTooLarge, "Payload Too Large", "Request body too large").WithCode("BODY_TOO_LARGE")
	}
	return ErrMalformed.WithDetail("Request body is not valid JSON: %s", err.Error())
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.From(r.Context()).Warn("write response", slog.Any("error", err))
	}
}

// pageParams reads pageNo and pageSize. Missing values stay zero so the
// service applies its defaults.
func pageParams(r *http.Request) (port.PageRequest, error) {
	var req port.PageRequest
	var err error
	if req.PageNo, err = intParam(r, "pageNo"); err != nil {
		return req, err
	}
	if req.PageSize, err = intParam(r, "pageSize"); err != nil {
		return req, err
	}
	return req, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrBadParameter.WithDetail("%s must be an integer", name)
	}
	return n, nil
}
