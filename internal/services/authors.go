package services

import (
	"context"

	"github.com/anonto42/timeline-globe/backend/internal/models"
	"github.com/anonto42/timeline-globe/backend/internal/repositories"
)

// authorResolver attaches read-only author display fields to posts.
type authorResolver struct {
	users repositories.UserRepository
}

func (r authorResolver) views(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	seen := make(map[uint]struct{}, len(posts))
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.AuthorID]; ok {
			continue
		}
		seen[p.AuthorID] = struct{}{}
		ids = append(ids, p.AuthorID)
	}

	users, err := r.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.PostView, len(posts))
	for i, p := range posts {
		views[i] = models.PostView{Post: p, Author: compactOf(users, p.AuthorID)}
	}
	return views, nil
}

func (r authorResolver) view(ctx context.Context, post *models.Post) (*models.PostView, error) {
	views, err := r.views(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// bare returns the post with only the author id, for when the directory is unavailable.
func bare(post *models.Post) *models.PostView {
	return &models.PostView{Post: *post, Author: models.UserCompact{ID: post.AuthorID}}
}

func compactOf(users map[uint]models.User, id uint) models.UserCompact {
	if u, ok := users[id]; ok {
		return u.ToCompact()
	}
	return models.UserCompact{ID: id}
}
