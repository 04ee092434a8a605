// Package noop discards domain events. It is used when no broker is
// configured.
package noop

import (
	"context"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/port"
)

type Publisher struct{}

func (Publisher) PublishUserRegistered(context.Context, domain.UserRegistered) error { return nil }
func (Publisher) PublishUserLoggedIn(context.Context, domain.UserLoggedIn) error { return nil }
func (Publisher) PublishUserLoggedOut(context.Context, domain.UserLoggedOut) error { return nil }
func (Publisher) PublishPostTagsChanged(context.Context, domain.PostTagsChanged) error { return nil }
func (Publisher) PublishTagDeleted(context.Context, domain.TagDeleted) error { return nil }

var _ port.Publisher = Publisher{}
