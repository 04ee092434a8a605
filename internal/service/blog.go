package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/strogmv/myblog/internal/domain"
	"github.com/strogmv/myblog/internal/pkg/helpers"
	"github.com/strogmv/myblog/internal/pkg/logger"
	"github.com/strogmv/myblog/internal/port"
)

type BlogImpl struct {
	PostRepo    port.PostRepository
	PostTagRepo port.PostTagRepository
	TagRepo     port.TagRepository
	txManager   port.TxManager
	publisher   port.Publisher
	search      port.SearchIndex
	storage     port.FileStorage
	now         func() time.Time
}

func NewBlogImpl(postRepo port.PostRepository, postTagRepo port.PostTagRepository, tagRepo port.TagRepository, txManager port.TxManager, publisher port.Publisher, search port.SearchIndex, storage port.FileStorage) *BlogImpl {
	return &BlogImpl{
		PostRepo:    postRepo,
		PostTagRepo: postTagRepo,
		TagRepo:     tagRepo,
		txManager:   txManager,
		publisher:   publisher,
		search:      search,
		storage:     storage,
		now:         time.Now,
	}
}

// ---------- posts ----------

func (s *BlogImpl) CreatePost(ctx context.Context, req port.PostRequest) (port.PostResponse, error) {
	if err := checkPost(&req); err != nil {
		return port.PostResponse{}, err
	}
	now := s.now()
	post := &domain.Post{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Text:      req.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.PostRepo.Save(ctx, post); err != nil {
		return port.PostResponse{}, fmt.Errorf("save post: %w", err)
	}
	s.search.Index(ctx, *post)
	return port.NewPostResponse(post, nil), nil
}

func (s *BlogImpl) GetPost(ctx context.Context, id string) (port.PostResponse, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return port.PostResponse{}, err
	}
	return s.postResponse(ctx, post)
}

func (s *BlogImpl) ListPosts(ctx context.Context, req port.PageRequest) (resp port.Page[port.PostResponse], err error) {
	if err := req.Validate(); err != nil {
		return resp, invalid(err)
	}
	offset, limit := helpers.Page(req.PageNo, req.PageSize)
	posts, err := s.PostRepo.ListAll(ctx, offset, limit)
	if err != nil {
		return resp, err
	}
	total, err := s.PostRepo.Count(ctx)
	if err != nil {
		return resp, err
	}
	return s.postPage(ctx, posts, offset, limit, total)
}

func (s *BlogImpl) ListPostsByTag(ctx context.Context, req port.PostsByTagRequest) (resp port.Page[port.PostResponse], err error) {
	req.TagName = strings.TrimSpace(req.TagName)
	if req.TagName == "" {
		return resp, ErrEmptyTagName
	}
	if err := req.Validate(); err != nil {
		return resp, invalid(err)
	}
	tag, err := s.TagRepo.FindByName(ctx, req.TagName)
	if errors.Is(err, port.ErrNotFound) {
		return resp, ErrTagNotFound.WithDetail("Tag %q not found", req.TagName)
	}
	if err != nil {
		return resp, err
	}
	offset, limit := helpers.Page(req.PageNo, req.PageSize)
	ids, err := s.PostTagRepo.PostIDsByTag(ctx, tag.ID, offset, limit)
	if err != nil {
		return resp, err
	}
	total, err := s.PostTagRepo.CountByTag(ctx, tag.ID)
	if err != nil {
		return resp, err
	}
	posts, err := s.PostRepo.ListByIDs(ctx, ids)
	if err != nil {
		return resp, err
	}
	return s.postPage(ctx, posts, offset, limit, total)
}

func (s *BlogImpl) UpdatePost(ctx context.Context, id string, req port.PostRequest) (port.PostResponse, error) {
	if err := checkPost(&req); err != nil {
		return port.PostResponse{}, err
	}
	var post *domain.Post
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.lockPost(ctx, id); err != nil {
			return err
		}
		var err error
		if post, err = s.findPost(ctx, id); err != nil {
			return err
		}
		post.Title = req.Title
		post.Text = req.Text
		post.UpdatedAt = s.now()
		return s.PostRepo.Save(ctx, post)
	})
	if err != nil {
		return port.PostResponse{}, err
	}
	s.search.Index(ctx, *post)
	return s.postResponse(ctx, post)
}

func (s *BlogImpl) DeletePost(ctx context.Context, id string) error {
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.lockPost(ctx, id); err != nil {
			return err
		}
		if _, err := s.PostTagRepo.DeleteByPost(ctx, id); err != nil {
			return err
		}
		return s.PostRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.search.Remove(ctx, id)
	return nil
}

// AttachMedia uploads the body to object storage and stores the resulting
// URL on the post.
func (s *BlogImpl) AttachMedia(ctx context.Context, req port.MediaRequest) (port.PostResponse, error) {
	if !req.Kind.Valid() {
		return port.PostResponse{}, ErrValidation.WithDetail("media kind must be one of [image video]")
	}
	if req.Body == nil {
		return port.PostResponse{}, ErrValidation.WithDetail("media body is required")
	}
	if _, err := s.findPost(ctx, req.PostID); err != nil {
		return port.PostResponse{}, err
	}

	key := fmt.Sprintf("posts/%s/%s-%s", req.PostID, req.Kind, uuid.NewString())
	stored, err := s.storage.Upload(ctx, key, req.Body, req.ContentType)
	if err != nil {
		return port.PostResponse{}, fmt.Errorf("upload media: %w", err)
	}
	url, err := s.storage.GetURL(ctx, stored)
	if err != nil {
		s.discardMedia(ctx, stored)
		return port.PostResponse{}, fmt.Errorf("media url: %w", err)
	}

	var post *domain.Post
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.lockPost(ctx, req.PostID); err != nil {
			return err
		}
		var err error
		if post, err = s.findPost(ctx, req.PostID); err != nil {
			return err
		}
		switch req.Kind {
		case port.MediaImage:
			post.ImageURL = url
		case port.MediaVideo:
			post.VideoURL = url
		}
		post.UpdatedAt = s.now()
		return s.PostRepo.Save(ctx, post)
	})
	if err != nil {
		s.discardMedia(ctx, stored)
		return port.PostResponse{}, err
	}
	return s.postResponse(ctx, post)
}

func (s *BlogImpl) discardMedia(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		logger.From(ctx).Warn("orphaned media object", slog.String("key", key), slog.Any("error", err))
	}
}

// SearchPosts pages over the ranked hits of the search index. An empty
// hit list is reported as ErrNoMatchFound.
func (s *BlogImpl) SearchPosts(ctx context.Context, req port.SearchRequest) (resp port.Page[port.PostResponse], err error) {
	req.Keyword = strings.TrimSpace(req.Keyword)
	if err := req.Validate(); err != nil {
		return resp, invalid(err)
	}
	ids, err := s.search.Query(ctx, req.Keyword)
	if err != nil {
		return resp, err
	}
	if len(ids) == 0 {
		return resp, ErrNoMatchFound.WithDetail("No post matches %q", req.Keyword)
	}
	offset, limit := helpers.Page(req.PageNo, req.PageSize)
	window := []string{}
	if offset >= 0 && offset < len(ids) {
		window = ids[offset:min(offset+limit, len(ids))]
	}
	posts, err := s.PostRepo.ListByIDs(ctx, window)
	if err != nil {
		return resp, err
	}
	return s.postPage(ctx, posts, offset, limit, int64(len(ids)))
}

// ---------- tag relation engine ----------

func (s *BlogImpl) TagsOf(ctx context.Context, postID string) ([]port.TagResponse, error) {
	if _, err := s.findPost(ctx, postID); err != nil {
		return nil, err
	}
	tags, err := s.tagsOf(ctx, postID)
	if err != nil {
		return nil, err
	}
	out := make([]port.TagResponse, 0, len(tags))
	for i := range tags {
		out = append(out, port.NewTagResponse(&tags[i]))
	}
	return out, nil
}

// AddTags attaches existing catalogue tags to a post. Every name is
// resolved before anything is written; the first failing name aborts the
// whole request.
func (s *BlogImpl) AddTags(ctx context.Context, postID string, req port.TagsRequest) (resp port.PostResponse, err error) {
	defer func() { tagMutations.WithLabelValues("add", outcome(err)).Inc() }()

	if len(req.Tags) == 0 {
		return resp, ErrEmptyTagList
	}
	if err := normalizeTags(&req); err != nil {
		return resp, err
	}

	var added []string
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.lockPost(ctx, postID); err != nil {
			return err
		}
		current, err := s.PostTagRepo.TagIDsByPost(ctx, postID)
		if err != nil {
			return err
		}
		onPost := toSet(current)

		var ids []string
		for _, raw := range req.Tags {
			tag, err := s.resolveTag(ctx, raw)
			if err != nil {
				return err
			}
			if _, ok := onPost[tag.ID]; ok {
				return ErrTagAlreadyOnPost.WithDetail("Tag %q is already on the post", tag.Name)
			}
			onPost[tag.ID] = struct{}{}
			ids = append(ids, tag.ID)
			added = append(added, tag.Name)
		}
		return s.PostTagRepo.Add(ctx, postID, ids)
	})
	if err != nil {
		s.rejectTags(ctx, "add", postID, err)
		return resp, err
	}

	s.publishTags(ctx, domain.PostTagsChanged{PostID: postID, Added: added})
	return s.GetPost(ctx, postID)
}

// RemoveTags detaches tags from a post with the same batch semantics as
// AddTags. On a post without tags the first resolved name fails with
// ErrNoTagsOnPost, which also matches ErrTagNotOnPost.
func (s *BlogImpl) RemoveTags(ctx context.Context, postID string, req port.TagsRequest) (err error) {
	defer func() { tagMutations.WithLabelValues("remove", outcome(err)).Inc() }()

	if len(req.Tags) == 0 {
		return ErrEmptyTagList
	}
	if err := normalizeTags(&req); err != nil {
		return err
	}

	var removed []string
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.lockPost(ctx, postID); err != nil {
			return err
		}
		current, err := s.PostTagRepo.TagIDsByPost(ctx, postID)
		if err != nil {
			return err
		}
		onPost := toSet(current)

		var ids []string
		for _, raw := range req.Tags {
			tag, err := s.resolveTag(ctx, raw)
			if err != nil {
				return err
			}
			if _, ok := onPost[tag.ID]; !ok {
				if len(current) == 0 {
					return errors.Join(ErrNoTagsOnPost, ErrTagNotOnPost)
				}
				return ErrTagNotOnPost.WithDetail("Tag %q is not on the post", tag.Name)
			}
			delete(onPost, tag.ID)
			ids = append(ids, tag.ID)
			removed = append(removed, tag.Name)
		}
		_, err = s.PostTagRepo.Remove(ctx, postID, ids)
		return err
	})
	if err != nil {
		s.rejectTags(ctx, "remove", postID, err)
		return err
	}

	s.publishTags(ctx, domain.PostTagsChanged{PostID: postID, Removed: removed})
	return nil
}

// CreateTags adds names to the catalogue, all or nothing.
func (s *BlogImpl) CreateTags(ctx context.Context, req port.TagsRequest) (out []port.TagResponse, err error) {
	defer func() { tagMutations.WithLabelValues("create", outcome(err)).Inc() }()

	if len(req.Tags) == 0 {
		return nil, ErrEmptyTagList
	}
	if err := normalizeTags(&req); err != nil {
		return nil, err
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		seen := make(map[string]struct{}, len(req.Tags))
		tags := make([]domain.Tag, 0, len(req.Tags))
		for _, raw := range req.Tags {
			name := strings.TrimSpace(raw)
			if name == "" {
				return ErrEmptyTagName
			}
			if _, dup := seen[name]; dup {
				return tagNameTaken(name)
			}
			seen[name] = struct{}{}
			if err := s.nameFree(ctx, name, ""); err != nil {
				return err
			}
			tags = append(tags, domain.Tag{ID: uuid.NewString(), Name: name, CreatedAt: s.now()})
		}

		out = make([]port.TagResponse, 0, len(tags))
		for i := range tags {
			if err := s.saveTag(ctx, &tags[i]); err != nil {
				return err
			}
			out = append(out, port.NewTagResponse(&tags[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RenameTag accepts exactly one name. Renaming a tag to its current name
// is a no-op.
func (s *BlogImpl) RenameTag(ctx context.Context, id string, req port.TagsRequest) (resp port.TagResponse, err error) {
	defer func() { tagMutations.WithLabelValues("rename", outcome(err)).Inc() }()

	switch {
	case len(req.Tags) == 0:
		return resp, ErrEmptyTagList
	case len(req.Tags) > 1:
		return resp, ErrTooManyNames
	}
	if err := normalizeTags(&req); err != nil {
		return resp, err
	}
	name := req.Tags[0]

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		tag, err := s.findTag(ctx, id)
		if err != nil {
			return err
		}
		if tag.Name != name {
			if err := s.nameFree(ctx, name, tag.ID); err != nil {
				return err
			}
			tag.Name = name
			if err := s.saveTag(ctx, tag); err != nil {
				return err
			}
		}
		resp = port.NewTagResponse(tag)
		return nil
	})
	return resp, err
}

// DeleteTag removes the tag and every association that references it.
func (s *BlogImpl) DeleteTag(ctx context.Context, id string) (err error) {
	defer func() { tagMutations.WithLabelValues("delete", outcome(err)).Inc() }()

	var (
		tag      *domain.Tag
		detached int64
	)
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if tag, err = s.findTag(ctx, id); err != nil {
			return err
		}
		if detached, err = s.PostTagRepo.DeleteByTag(ctx, id); err != nil {
			return err
		}
		return s.TagRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	if pubErr := s.publisher.PublishTagDeleted(ctx, domain.TagDeleted{TagID: tag.ID, Name: tag.Name, Detached: detached}); pubErr != nil {
		logger.From(ctx).Warn("event publish failed", slog.String("subject", domain.SubjectTagDeleted), slog.Any("error", pubErr))
	}
	return nil
}

func (s *BlogImpl) GetTag(ctx context.Context, id string) (port.TagResponse, error) {
	tag, err := s.findTag(ctx, id)
	if err != nil {
		return port.TagResponse{}, err
	}
	return port.NewTagResponse(tag), nil
}

func (s *BlogImpl) ListTags(ctx context.Context, req port.PageRequest) (resp port.Page[port.TagResponse], err error) {
	if err := req.Validate(); err != nil {
		return resp, invalid(err)
	}
	offset, limit := helpers.Page(req.PageNo, req.PageSize)
	tags, err := s.TagRepo.ListAll(ctx, offset, limit)
	if err != nil {
		return resp, err
	}
	total, err := s.TagRepo.Count(ctx)
	if err != nil {
		return resp, err
	}
	resp = port.Page[port.TagResponse]{
		Content:  make([]port.TagResponse, 0, len(tags)),
		PageNo:   offset / limit,
		PageSize: limit,
		Total:    total,
	}
	for i := range tags {
		resp.Content = append(resp.Content, port.NewTagResponse(&tags[i]))
	}
	return resp, nil
}

// TagUsage lists every tag with its post count, most used first.
func (s *BlogImpl) TagUsage(ctx context.Context) ([]domain.TagUsage, error) {
	tags, err := s.TagRepo.ListAll(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	out := make([]domain.TagUsage, 0, len(tags))
	for _, tag := range tags {
		n, err := s.PostTagRepo.CountByTag(ctx, tag.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.TagUsage{Tag: tag, Posts: int(n)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Posts != out[j].Posts {
			return out[i].Posts > out[j].Posts
		}
		return out[i].Tag.Name < out[j].Tag.Name
	})
	return out, nil
}

// ---------- helpers ----------

func checkPost(req *port.PostRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return ErrEmptyTitle
	}
	if err := req.Validate(); err != nil {
		return invalid(err)
	}
	return nil
}

// resolveTag maps a requested name to a catalogue tag. Attaching never
// creates tags.
// normalizeTags trims every name in place, then checks blanks before
// length so a blank name always reports ErrEmptyTagName.
func normalizeTags(req *port.TagsRequest) error {
	names := make([]string, len(req.Tags))
	for i, raw := range req.Tags {
		names[i] = strings.TrimSpace(raw)
		if names[i] == "" {
			return ErrEmptyTagName
		}
	}
	req.Tags = names
	if err := req.Validate(); err != nil {
		return invalid(err)
	}
	return nil
}

func (s *BlogImpl) resolveTag(ctx context.Context, raw string) (*domain.Tag, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return nil, ErrEmptyTagName
	}
	tag, err := s.TagRepo.FindByName(ctx, name)
	if errors.Is(err, port.ErrNotFound) {
		return nil, ErrTagNotFound.WithDetail("Tag %q not found", name)
	}
	return tag, err
}

// nameFree fails when name belongs to a tag other than selfID.
func (s *BlogImpl) nameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.TagRepo.FindByName(ctx, name)
	if errors.Is(err, port.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return tagNameTaken(name)
	}
	return nil
}

func (s *BlogImpl) saveTag(ctx context.Context, tag *domain.Tag) error {
	if err := s.TagRepo.Save(ctx, tag); err != nil {
		if errors.Is(err, port.ErrConflict) {
			return tagNameTaken(tag.Name)
		}
		return fmt.Errorf("save tag: %w", err)
	}
	return nil
}

func tagNameTaken(name string) error {
	return ErrTagNameNotUnique.WithDetail("Tag name %q already exists", name)
}

func (s *BlogImpl) lockPost(ctx context.Context, id string) error {
	err := s.PostRepo.LockByID(ctx, id)
	if errors.Is(err, port.ErrNotFound) {
		return ErrPostNotFound
	}
	return err
}

func (s *BlogImpl) findPost(ctx context.Context, id string) (*domain.Post, error) {
	post, err := s.PostRepo.FindByID(ctx, id)
	if errors.Is(err, port.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	return post, err
}

func (s *BlogImpl) findTag(ctx context.Context, id string) (*domain.Tag, error) {
	tag, err := s.TagRepo.FindByID(ctx, id)
	if errors.Is(err, port.ErrNotFound) {
		return nil, ErrTagNotFound
	}
	return tag, err
}

func (s *BlogImpl) tagsOf(ctx context.Context, postID string) ([]domain.Tag, error) {
	ids, err := s.PostTagRepo.TagIDsByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.TagRepo.ListByIDs(ctx, ids)
}

func (s *BlogImpl) postResponse(ctx context.Context, post *domain.Post) (port.PostResponse, error) {
	tags, err := s.tagsOf(ctx, post.ID)
	if err != nil {
		return port.PostResponse{}, err
	}
	return port.NewPostResponse(post, tags), nil
}

func (s *BlogImpl) postPage(ctx context.Context, posts []domain.Post, offset, limit int, total int64) (port.Page[port.PostResponse], error) {
	page := port.Page[port.PostResponse]{
		Content:  make([]port.PostResponse, 0, len(posts)),
		PageNo:   offset / limit,
		PageSize: limit,
		Total:    total,
	}
	for i := range posts {
		item, err := s.postResponse(ctx, &posts[i])
		if err != nil {
			return page, err
		}
		page.Content = append(page.Content, item)
	}
	return page, nil
}

func (s *BlogImpl) rejectTags(ctx context.Context, op, postID string, err error) {
	logger.From(ctx).Warn("tag mutation rejected",
		slog.String("service", "blog"),
		slog.String("op", op),
		slog.String("post_id", postID),
		slog.Any("error", err),
	)
}

func (s *BlogImpl) publishTags(ctx context.Context, event domain.PostTagsChanged) {
	if err := s.publisher.PublishPostTagsChanged(ctx, event); err != nil {
		logger.From(ctx).Warn("event publish failed", slog.String("subject", domain.SubjectPostTagsChanged), slog.Any("error", err))
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

var _ port.Blog = (*BlogImpl)(nil)
