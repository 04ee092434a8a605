package port

import (
	"context"
	"io"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/pkg/helpers"
)

type Blog interface {
	CreatePost(ctx context.Context, req PostRequest) (PostResponse, error)
	GetPost(ctx context.Context, id string) (PostResponse, error)
	ListPosts(ctx context.Context, req PageRequest) (Page[PostResponse], error)
	ListPostsByTag(ctx context.Context, req PostsByTagRequest) (Page[PostResponse], error)
	UpdatePost(ctx context.Context, id string, req PostRequest) (PostResponse, error)
	DeletePost(ctx context.Context, id string) error
	AttachMedia(ctx context.Context, req MediaRequest) (PostResponse, error)
	SearchPosts(ctx context.Context, req SearchRequest) (Page[PostResponse], error)

	TagsOf(ctx context.Context, postID string) ([]TagResponse, error)
	AddTags(ctx context.Context, postID string, req TagsRequest) (PostResponse, error)
	RemoveTags(ctx context.Context, postID string, req TagsRequest) error

	CreateTags(ctx context.Context, req TagsRequest) ([]TagResponse, error)
	RenameTag(ctx context.Context, id string, req TagsRequest) (TagResponse, error)
	DeleteTag(ctx context.Context, id string) error
	GetTag(ctx context.Context, id string) (TagResponse, error)
	ListTags(ctx context.Context, req PageRequest) (Page[TagResponse], error)
	TagUsage(ctx context.Context) ([]domain.TagUsage, error)
}

// Request/Response DTOs
type PostRequest struct {
	Title string `json:"title" validate:"max=60"`
	Text  string `json:"text" validate:"max=1000"`
}

func (d *PostRequest) Validate() error {
	return helpers.Validate(d)
}

type PostResponse struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Text     string        `json:"text"`
	ImageURL string        `json:"imageUrl,omitempty"`
	VideoURL string        `json:"videoUrl,omitempty"`
	Tags     []TagResponse `json:"tags"`
}

func NewPostResponse(p *domain.Post, tags []domain.Tag) PostResponse {
	resp := PostResponse{
		ID:       p.ID,
		Title:    p.Title,
		Text:     p.Text,
		ImageURL: p.ImageURL,
		VideoURL: p.VideoURL,
		Tags:     make([]TagResponse, 0, len(tags)),
	}
	for i := range tags {
		resp.Tags = append(resp.Tags, NewTagResponse(&tags[i]))
	}
	return resp
}

// TagsRequest carries tag names, never IDs.
type TagsRequest struct {
	Tags []string `json:"tags" validate:"dive,max=20"`
}

func (d *TagsRequest) Validate() error {
	return helpers.Validate(d)
}

type TagResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewTagResponse(t *domain.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name}
}

type PostsByTagRequest struct {
	TagName string `json:"tagName" validate:"max=20"`
	PageRequest
}

func (d *PostsByTagRequest) Validate() error {
	return helpers.Validate(d)
}

type SearchRequest struct {
	Keyword string `json:"keyword" validate:"required,max=100"`
	PageRequest
}

func (d *SearchRequest) Validate() error {
	return helpers.Validate(d)
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

func (k MediaKind) Valid() bool {
	return k == MediaImage || k == MediaVideo
}

type MediaRequest struct {
	PostID      string
	Kind        MediaKind
	ContentType string
	Body        io.Reader
}
