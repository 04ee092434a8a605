// Package errors carries HTTP-aware application errors rendered as
// RFC 7807 problem documents.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/strogmv/myblog/internal/pkg/logger"
)

// Titles double as the error taxonomy.
const (
	TitleValidation     = "Validation Error"
	TitleNotFound       = "Not Found"
	TitleConflict       = "Conflict"
	TitleRelation       = "Relation Error"
	TitleAuthentication = "Authentication Error"
	TitleForbidden      = "Forbidden"
	TitleInternal       = "Internal Server Error"
)

// Error is a user-facing error with a stable machine-readable code.
type Error struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func New(status int, title, detail string) *Error {
	return &Error{Status: status, Title: title, Detail: detail}
}

// WithCode returns a copy of e tagged with code.
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// WithDetail returns a copy of e with a new detail, keeping the code.
func (e *Error) WithDetail(format string, args ...any) *Error {
	cp := *e
	cp.Detail = fmt.Sprintf(format, args...)
	return &cp
}

func (e *Error) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Detail
	}
	return e.Title + ": " + e.Detail
}

// Is matches on Code so callers can compare against sentinel errors
// whose detail differs.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Code != "" || t.Code != "" {
		return e.Code == t.Code
	}
	return e.Status == t.Status && e.Title == t.Title
}

func Validation(code, detail string) *Error {
	return New(http.StatusBadRequest, TitleValidation, detail).WithCode(code)
}

func NotFound(code, detail string) *Error {
	return New(http.StatusNotFound, TitleNotFound, detail).WithCode(code)
}

func Conflict(code, detail string) *Error {
	return New(http.StatusConflict, TitleConflict, detail).WithCode(code)
}

func Relation(code, detail string) *Error {
	return New(http.StatusBadRequest, TitleRelation, detail).WithCode(code)
}

func Unauthorized(code, detail string) *Error {
	return New(http.StatusUnauthorized, TitleAuthentication, detail).WithCode(code)
}

func Forbidden(detail string) *Error {
	return New(http.StatusForbidden, TitleForbidden, detail).WithCode("FORBIDDEN")
}

// As unwraps err into an *Error.
func As(err error) (*Error, bool) {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Code     string `json:"code,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// WriteError renders err as application/problem+json. Errors that are not
// *Error are reported as 500 without leaking their message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := As(err)
	if !ok || appErr.Status >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	if !ok {
		appErr = New(http.StatusInternalServerError, TitleInternal, "An unexpected error occurred")
	}

	body := problem{
		Type:     "about:blank",
		Title:    appErr.Title,
		Status:   appErr.Status,
		Detail:   appErr.Detail,
		Code:     appErr.Code,
		Instance: r.URL.Path,
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(body)
}
