package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anonto42/timeline-globe/backend/internal/apperrors"
	"github.com/anonto42/timeline-globe/backend/internal/models"
	"github.com/anonto42/timeline-globe/backend/internal/repositories"
	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/anonto42/timeline-globe/backend/internal/services")

// DefaultVoteMaxAttempts bounds how many times a vote is retried on version conflicts.
const DefaultVoteMaxAttempts = 50

// VoteLedger applies votes to posts. Each vote is a read, a pure transition
// and a version-guarded write of the tally and vote records together; a lost
// race is retried against the fresh post.
type VoteLedger struct {
	posts       repositories.PostRepository
	authors     authorResolver
	maxAttempts uint
	newBackOff  func() backoff.BackOff
	logger      *slog.Logger
}

// LedgerOption configures a VoteLedger.
type LedgerOption func(*VoteLedger)

// WithMaxAttempts sets how many read-apply-write rounds a single vote may take.
func WithMaxAttempts(n uint) LedgerOption {
	return func(l *VoteLedger) {
		if n > 0 {
			l.maxAttempts = n
		}
	}
}

// WithBackOff sets the wait policy between conflicting attempts.
func WithBackOff(f func() backoff.BackOff) LedgerOption {
	return func(l *VoteLedger) { l.newBackOff = f }
}

// NewVoteLedger creates a new VoteLedger retrying up to DefaultVoteMaxAttempts
// times unless overridden by opts.
func NewVoteLedger(posts repositories.PostRepository, users repositories.UserRepository, logger *slog.Logger, opts ...LedgerOption) *VoteLedger {
	l := &VoteLedger{
		posts:       posts,
		authors:     authorResolver{users: users},
		maxAttempts: DefaultVoteMaxAttempts,
		newBackOff:  defaultVoteBackOff,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func defaultVoteBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Millisecond
	b.MaxInterval = 50 * time.Millisecond
	b.Multiplier = 1.5
	b.RandomizationFactor = 0.5
	b.Reset()
	return b
}

// CastVote records voteType from userID on the post and returns the updated post.
func (l *VoteLedger) CastVote(ctx context.Context, postID string, userID uint, voteType string) (*models.PostView, error) {
	ctx, span := tracer.Start(ctx, "VoteLedger.CastVote", trace.WithAttributes(
		attribute.String("post.id", postID),
		attribute.Int64("user.id", int64(userID)),
		attribute.String("vote.type", voteType),
	))
	defer span.End()

	vt, err := models.ParseVoteType(voteType)
	if err != nil {
		return nil, apperrors.InvalidArgument("%v", err)
	}
	if userID == 0 {
		return nil, apperrors.Unauthorized("authentication required")
	}

	var (
		attempts uint
		tr       Transition
	)
	post, err := backoff.Retry(ctx, func() (*models.Post, error) {
		attempts++
		current, err := l.posts.GetPostByID(ctx, postID)
		if err != nil {
			if errors.Is(err, repositories.ErrPostNotFound) {
				return nil, backoff.Permanent(apperrors.NotFound("post not found"))
			}
			return nil, backoff.Permanent(apperrors.Storage("load post", err))
		}

		tr = ApplyVote(current.Votes, current.UserVotes, userID, vt)
		updated, err := l.posts.SwapVotes(ctx, postID, current.Version, tr.Votes, tr.UserVotes)
		switch {
		case err == nil:
			return updated, nil
		case errors.Is(err, repositories.ErrVersionConflict):
			return nil, err
		case errors.Is(err, repositories.ErrPostNotFound):
			return nil, backoff.Permanent(apperrors.NotFound("post not found"))
		default:
			return nil, backoff.Permanent(apperrors.Storage("write votes", err))
		}
	}, backoff.WithBackOff(l.newBackOff()), backoff.WithMaxTries(l.maxAttempts))

	span.SetAttributes(attribute.Int64("vote.attempts", int64(attempts)))
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		if apperrors.KindOf(err) == apperrors.KindUnknown {
			err = apperrors.Storage("cast vote", fmt.Errorf("after %d attempts: %w", attempts, err))
		}
		switch apperrors.KindOf(err) {
		case apperrors.KindCanceled:
			l.logger.Debug("cast vote canceled", "post_id", postID, "user_id", userID, "attempts", attempts)
		case apperrors.KindStorage:
			span.RecordError(err)
			span.SetStatus(codes.Error, "cast vote failed")
			l.logger.Error("cast vote failed", "post_id", postID, "user_id", userID, "attempts", attempts, "error", err)
		}
		return nil, err
	}

	l.logger.Debug("vote applied",
		"post_id", postID,
		"user_id", userID,
		"from", tr.From.String(),
		"to", tr.To.String(),
		"up", post.Votes.Up,
		"down", post.Votes.Down,
		"attempts", attempts,
	)

	view, err := l.authors.view(ctx, post)
	if err != nil {
		// The vote is committed; only the display join failed.
		l.logger.Warn("resolve post author", "post_id", postID, "error", err)
		return bare(post), nil
	}
	return view, nil
}
