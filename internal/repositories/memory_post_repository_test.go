package repositories

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/anonto42/timeline-globe/backend/internal/models"
)

func seedPost(t *testing.T, repo *MemoryPostRepository, lng, lat float64, year int, created time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		Content:   "post",
		Location:  models.Location{GeoPoint: models.NewGeoPoint(lng, lat), Name: "somewhere"},
		Year:      year,
		AuthorID:  1,
		CreatedAt: created,
	}
	if err := repo.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func ids(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID.Hex()
	}
	return out
}

func TestSphericalDistance(t *testing.T) {
	rome := models.NewGeoPoint(12.4964, 41.9028)
	paris := models.NewGeoPoint(2.3522, 48.8566)
	d := SphericalDistance(rome, paris)
	// Rome to Paris is roughly 1106 km on the sphere.
	if math.Abs(d-1106e3) > 10e3 {
		t.Fatalf("distance = %.0f m, want about 1106 km", d)
	}
	if got := SphericalDistance(rome, rome); got != 0 {
		t.Fatalf("distance to self = %f, want 0", got)
	}
	if back := SphericalDistance(paris, rome); math.Abs(back-d) > 1e-6 {
		t.Fatalf("distance is not symmetric: %f vs %f", d, back)
	}
	antipode := models.NewGeoPoint(-167.5036, -41.9028)
	if got := SphericalDistance(rome, antipode); math.Abs(got-math.Pi*EarthRadiusMeters) > 1 {
		t.Fatalf("distance to antipode = %.0f m, want half the circumference", got)
	}
}

func TestFindPostsWithinRadius(t *testing.T) {
	repo := NewMemoryPostRepository()
	now := time.Now()
	rome := seedPost(t, repo, 12.4964, 41.9028, 125, now)
	near := seedPost(t, repo, 12.4964, 42.3528, 125, now.Add(-time.Hour))   // ~50 km north
	far := seedPost(t, repo, 12.4964, 46.4028, 125, now.Add(-2*time.Hour)) // ~500 km north

	center := models.NewGeoPoint(12.4964, 41.9028)
	got, err := repo.FindPosts(context.Background(), models.PostFilter{Near: &center, RadiusMeters: 100000})
	if err != nil {
		t.Fatalf("find posts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d posts, want 2: %v", len(got), ids(got))
	}
	if got[0].ID != rome.ID || got[1].ID != near.ID {
		t.Fatalf("unexpected order %v", ids(got))
	}
	for _, p := range got {
		if p.ID == far.ID {
			t.Fatal("post 500 km away must be excluded")
		}
		if p.Distance == nil {
			t.Fatal("proximity results must carry their distance")
		}
	}
}

func TestFindPostsUsesSphericalDistance(t *testing.T) {
	repo := NewMemoryPostRepository()
	now := time.Now()
	// At 60N a degree of longitude is half a degree of latitude on the ground.
	east := seedPost(t, repo, 1.5, 60, 1000, now)    // ~83 km away
	north := seedPost(t, repo, 0, 60.95, 1000, now) // ~106 km away, smaller raw offset

	center := models.NewGeoPoint(0, 60)
	got, err := repo.FindPosts(context.Background(), models.PostFilter{Near: &center, RadiusMeters: 100000})
	if err != nil {
		t.Fatalf("find posts: %v", err)
	}
	if len(got) != 1 || got[0].ID != east.ID {
		t.Fatalf("want only %s, got %v (north=%s)", east.ID.Hex(), ids(got), north.ID.Hex())
	}
}

func TestFindPostsYearAndRecency(t *testing.T) {
	repo := NewMemoryPostRepository()
	now := time.Now()
	older := seedPost(t, repo, 0, 0, 1066, now.Add(-time.Hour))
	newer := seedPost(t, repo, 10, 10, 1066, now)
	seedPost(t, repo, 0, 0, 1492, now.Add(time.Hour))

	year := 1066
	got, err := repo.FindPosts(context.Background(), models.PostFilter{Year: &year})
	if err != nil {
		t.Fatalf("find posts: %v", err)
	}
	if len(got) != 2 || got[0].ID != newer.ID || got[1].ID != older.ID {
		t.Fatalf("want newest first for year 1066, got %v", ids(got))
	}

	page, err := repo.FindPosts(context.Background(), models.PostFilter{Skip: 1, Limit: 1})
	if err != nil {
		t.Fatalf("find posts: %v", err)
	}
	if len(page) != 1 || page[0].ID != newer.ID {
		t.Fatalf("second page = %v, want %s", ids(page), newer.ID.Hex())
	}
}

func TestSwapVotesVersionConflict(t *testing.T) {
	repo := NewMemoryPostRepository()
	p := seedPost(t, repo, 0, 0, 1, time.Now())
	ctx := context.Background()

	votes := []models.UserVote{{User: 7, VoteType: models.VoteUp}}
	updated, err := repo.SwapVotes(ctx, p.ID.Hex(), 0, models.VoteTally{Up: 1}, votes)
	if err != nil {
		t.Fatalf("swap votes: %v", err)
	}
	if updated.Version != 1 || updated.Votes.Up != 1 || len(updated.UserVotes) != 1 {
		t.Fatalf("unexpected post after swap: %+v", updated)
	}

	if _, err := repo.SwapVotes(ctx, p.ID.Hex(), 0, models.VoteTally{}, nil); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("stale write: err = %v, want ErrVersionConflict", err)
	}

	stored, err := repo.GetPostByID(ctx, p.ID.Hex())
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if stored.Votes.Up != 1 || len(stored.UserVotes) != 1 {
		t.Fatalf("stale write must not change the post: %+v", stored)
	}
}

func TestUpdateAndDeleteRequireAuthor(t *testing.T) {
	repo := NewMemoryPostRepository()
	p := seedPost(t, repo, 0, 0, 1, time.Now())
	ctx := context.Background()
	content := "changed"

	if _, err := repo.UpdatePost(ctx, p.ID.Hex(), 2, models.PostPatch{Content: &content}); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("update by other user: err = %v", err)
	}
	updated, err := repo.UpdatePost(ctx, p.ID.Hex(), 1, models.PostPatch{Content: &content})
	if err != nil {
		t.Fatalf("update by author: %v", err)
	}
	if updated.Content != content {
		t.Fatalf("content = %q, want %q", updated.Content, content)
	}

	if err := repo.DeletePost(ctx, p.ID.Hex(), 2); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("delete by other user: err = %v", err)
	}
	if err := repo.DeletePost(ctx, p.ID.Hex(), 1); err != nil {
		t.Fatalf("delete by author: %v", err)
	}
	if _, err := repo.GetPostByID(ctx, p.ID.Hex()); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("get after delete: err = %v", err)
	}
}

func TestGetPostByIDInvalidID(t *testing.T) {
	repo := NewMemoryPostRepository()
	if _, err := repo.GetPostByID(context.Background(), "not-an-object-id"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("err = %v, want ErrPostNotFound", err)
	}
}

func TestReturnedPostsAreCopies(t *testing.T) {
	repo := NewMemoryPostRepository()
	p := seedPost(t, repo, 0, 0, 1, time.Now())
	got, err := repo.GetPostByID(context.Background(), p.ID.Hex())
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	got.UserVotes = append(got.UserVotes, models.UserVote{User: 9, VoteType: models.VoteDown})
	got.Location.Coordinates[0] = 99

	again, _ := repo.GetPostByID(context.Background(), p.ID.Hex())
	if len(again.UserVotes) != 0 || again.Location.Lng() != 0 {
		t.Fatalf("stored post was mutated through a returned copy: %+v", again)
	}
}
