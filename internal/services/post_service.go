package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/anonto42/timeline-globe/backend/internal/apperrors"
	"github.com/anonto42/timeline-globe/backend/internal/models"
	"github.com/anonto42/timeline-globe/backend/internal/repositories"
	"github.com/anonto42/timeline-globe/backend/validators"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultRadiusMeters applies when a center is given without a radius.
	DefaultRadiusMeters = 100000.0
	DefaultQueryLimit   = 100
	DefaultMaxLimit     = 500
)

// PostServiceConfig holds query defaults.
type PostServiceConfig struct {
	DefaultRadiusMeters float64
	MaxLimit            int64
}

// PostService creates, browses and edits posts. Only authors may edit or
// delete their posts.
type PostService struct {
	posts         repositories.PostRepository
	authors       authorResolver
	validate      *validator.Validate
	defaultRadius float64
	maxLimit      int64
	now           func() time.Time
	logger        *slog.Logger
}

// NewPostService creates a new PostService. A nil validate falls back to
// validators.New(); zero config values fall back to the package defaults.
func NewPostService(posts repositories.PostRepository, users repositories.UserRepository, validate *validator.Validate, cfg PostServiceConfig, logger *slog.Logger) *PostService {
	if cfg.DefaultRadiusMeters <= 0 {
		cfg.DefaultRadiusMeters = DefaultRadiusMeters
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultMaxLimit
	}
	if validate == nil {
		validate = validators.New()
	}
	return &PostService{
		posts:         posts,
		authors:       authorResolver{users: users},
		validate:      validate,
		defaultRadius: cfg.DefaultRadiusMeters,
		maxLimit:      cfg.MaxLimit,
		now:           time.Now,
		logger:        logger,
	}
}

// CreatePost stores a new post authored by authorID.
func (s *PostService) CreatePost(ctx context.Context, authorID uint, req models.CreatePostRequest) (*models.PostView, error) {
	if authorID == 0 {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.InvalidArgument("%s", validators.Describe(err))
	}

	now := s.now().UTC()
	post := &models.Post{
		Content:   req.Content,
		Location:  req.Location.ToLocation(),
		Year:      *req.Year,
		AuthorID:  authorID,
		Votes:     models.VoteTally{},
		UserVotes: []models.UserVote{},
		Media:     req.Media,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, apperrors.Storage("create post", err)
	}
	s.logger.Info("post created", "post_id", post.ID.Hex(), "author_id", authorID, "year", post.Year)
	return s.resolve(ctx, post)
}

// GetPost returns one post with its author resolved.
func (s *PostService) GetPost(ctx context.Context, id string) (*models.PostView, error) {
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		return nil, s.notFoundOr("load post", err)
	}
	return s.resolve(ctx, post)
}

// QueryPosts browses posts by year and proximity. A center without a radius
// searches DefaultRadiusMeters around it.
func (s *PostService) QueryPosts(ctx context.Context, q models.PostQuery) ([]models.PostView, error) {
	ctx, span := tracer.Start(ctx, "PostService.QueryPosts")
	defer span.End()

	filter, err := s.filterFor(q)
	if err != nil {
		return nil, err
	}
	if filter.Year != nil {
		span.SetAttributes(attribute.Int("filter.year", *filter.Year))
	}
	if filter.Near != nil {
		span.SetAttributes(attribute.Float64("filter.radius_m", filter.RadiusMeters))
	}

	posts, err := s.posts.FindPosts(ctx, filter)
	if err != nil {
		return nil, apperrors.Storage("find posts", err)
	}
	views, err := s.authors.views(ctx, posts)
	if err != nil {
		return nil, apperrors.Storage("resolve authors", err)
	}
	span.SetAttributes(attribute.Int("result.count", len(views)))
	return views, nil
}

func (s *PostService) filterFor(q models.PostQuery) (models.PostFilter, error) {
	filter := models.PostFilter{Year: q.Year, Skip: q.Skip, Limit: q.Limit}

	if q.Skip < 0 {
		return filter, apperrors.InvalidArgument("skip must not be negative")
	}
	switch {
	case q.Limit < 0:
		return filter, apperrors.InvalidArgument("limit must not be negative")
	case q.Limit == 0:
		filter.Limit = min(DefaultQueryLimit, s.maxLimit)
	case q.Limit > s.maxLimit:
		filter.Limit = s.maxLimit
	}

	if (q.Lat == nil) != (q.Lng == nil) {
		return filter, apperrors.InvalidArgument("lat and lng must be given together")
	}
	if q.Lat == nil {
		if q.RadiusMeters != nil {
			return filter, apperrors.InvalidArgument("radius requires lat and lng")
		}
		return filter, nil
	}
	if !finite(*q.Lat) || !finite(*q.Lng) || *q.Lat < -90 || *q.Lat > 90 || *q.Lng < -180 || *q.Lng > 180 {
		return filter, apperrors.InvalidArgument("lat must be within [-90,90] and lng within [-180,180]")
	}

	center := models.NewGeoPoint(*q.Lng, *q.Lat)
	filter.Near = &center
	filter.RadiusMeters = s.defaultRadius
	if q.RadiusMeters != nil {
		if !finite(*q.RadiusMeters) || *q.RadiusMeters <= 0 {
			return filter, apperrors.InvalidArgument("radius must be a positive number of meters")
		}
		filter.RadiusMeters = *q.RadiusMeters
	}
	return filter, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// UpdatePost applies the non-nil fields of req. Only the author may update.
func (s *PostService) UpdatePost(ctx context.Context, id string, actingUserID uint, req models.UpdatePostRequest) (*models.PostView, error) {
	if actingUserID == 0 {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.InvalidArgument("%s", validators.Describe(err))
	}
	if req.IsEmpty() {
		return nil, apperrors.InvalidArgument("no fields to update")
	}

	if err := s.authorize(ctx, id, actingUserID, "update"); err != nil {
		return nil, err
	}

	patch := models.PostPatch{Content: req.Content, Year: req.Year, Media: req.Media}
	if req.Location != nil {
		loc := req.Location.ToLocation()
		patch.Location = &loc
	}
	post, err := s.posts.UpdatePost(ctx, id, actingUserID, patch)
	if err != nil {
		return nil, s.notFoundOr("update post", err)
	}
	s.logger.Info("post updated", "post_id", id, "author_id", actingUserID)
	return s.resolve(ctx, post)
}

// DeletePost removes the post permanently. Only the author may delete.
func (s *PostService) DeletePost(ctx context.Context, id string, actingUserID uint) error {
	if actingUserID == 0 {
		return apperrors.Unauthorized("authentication required")
	}
	if err := s.authorize(ctx, id, actingUserID, "delete"); err != nil {
		return err
	}
	if err := s.posts.DeletePost(ctx, id, actingUserID); err != nil {
		return s.notFoundOr("delete post", err)
	}
	s.logger.Info("post deleted", "post_id", id, "author_id", actingUserID)
	return nil
}

func (s *PostService) authorize(ctx context.Context, id string, actingUserID uint, action string) error {
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		return s.notFoundOr("load post", err)
	}
	if post.AuthorID != actingUserID {
		return apperrors.Forbidden("you are not authorized to " + action + " this post")
	}
	return nil
}

func (s *PostService) resolve(ctx context.Context, post *models.Post) (*models.PostView, error) {
	view, err := s.authors.view(ctx, post)
	if err != nil {
		return nil, apperrors.Storage("resolve author", err)
	}
	return view, nil
}

func (s *PostService) notFoundOr(op string, err error) error {
	if errors.Is(err, repositories.ErrPostNotFound) {
		return apperrors.NotFound("post not found")
	}
	return apperrors.Storage(op, err)
}
