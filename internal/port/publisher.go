package port

import (
	"context"

	"github.com/strogmv/myblog/internal/domain"
)

type Publisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegistered) error
	PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedIn) error
	PublishUserLoggedOut(ctx context.Context, event domain.UserLoggedOut) error
	PublishPostTagsChanged(ctx context.Context, event domain.PostTagsChanged) error
	PublishTagDeleted(ctx context.Context, event domain.TagDeleted) error
}
