package service

import (
	"net/http"

	"github.com/strogmv/myblog/internal/pkg/errors"
)

// Domain errors. Compare with errors.Is; details vary per call.
var (
	ErrValidation   = errors.Validation("VALIDATION_FAILED", "Request is invalid")
	ErrEmptyTagList = errors.Validation("EMPTY_TAG_LIST", "At least one tag name is required")
	ErrEmptyTagName = errors.Validation("EMPTY_TAG_NAME", "Tag name must not be blank")
	ErrTooManyNames = errors.Validation("TOO_MANY_NAMES", "Only one tag is allowed to update each time")
	ErrEmptyTitle   = errors.Validation("EMPTY_TITLE", "Post title must not be blank")

	ErrPostNotFound = errors.NotFound("POST_NOT_FOUND", "Post not found")
	ErrTagNotFound  = errors.NotFound("TAG_NOT_FOUND", "Tag not found")
	ErrUserNotFound = errors.NotFound("USER_NOT_FOUND", "User not found")
	ErrNoMatchFound = errors.NotFound("NO_MATCH_FOUND", "No post matches the keyword")

	ErrTagNameNotUnique  = errors.Conflict("TAG_NAME_NOT_UNIQUE", "Tag name already exists")
	ErrUsernameNotUnique = errors.Conflict("USERNAME_NOT_UNIQUE", "Username already exists")

	ErrTagAlreadyOnPost = errors.Relation("TAG_ALREADY_ON_POST", "Tag is already on the post")
	ErrTagNotOnPost     = errors.Relation("TAG_NOT_ON_POST", "Tag is not on the post")
	ErrNoTagsOnPost     = errors.Relation("NO_TAGS_ON_POST", "Post has no tags")

	ErrBadCredentials = errors.Unauthorized("BAD_CREDENTIALS", "Invalid username or password")
	ErrInvalidToken   = errors.Unauthorized("INVALID_TOKEN", "Token is invalid, expired or revoked")

	ErrSearchNotReady = errors.New(http.StatusServiceUnavailable, "Service Unavailable", "Search index is still being built").WithCode("SEARCH_NOT_READY")
)

func invalid(err error) error {
	return ErrValidation.WithDetail("%s", err.Error())
}
