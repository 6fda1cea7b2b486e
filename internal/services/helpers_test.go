package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/anonto42/timeline-globe/backend/internal/models"
	"github.com/anonto42/timeline-globe/backend/internal/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func romeRequest() models.CreatePostRequest {
	return models.CreatePostRequest{
		Content: "Ancient Roman settlement discovered here in 125 CE",
		Location: &models.LocationInput{
			Type:        "Point",
			Coordinates: []float64{12.4964, 41.9028},
			Name:        "Rome",
		},
		Year: intPtr(125),
	}
}

type fixture struct {
	posts   *repositories.MemoryPostRepository
	users   *repositories.MemoryUserRepository
	service *PostService
	ledger  *VoteLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	posts := repositories.NewMemoryPostRepository()
	users := repositories.NewMemoryUserRepository(
		models.User{ID: 1, Username: "livia", IsVerified: true},
		models.User{ID: 2, Username: "marcus"},
	)
	return &fixture{
		posts:   posts,
		users:   users,
		service: NewPostService(posts, users, nil, PostServiceConfig{}, discardLogger()),
		ledger:  NewVoteLedger(posts, users, discardLogger()),
	}
}

func (f *fixture) createPost(t *testing.T, author uint, req models.CreatePostRequest) *models.PostView {
	t.Helper()
	view, err := f.service.CreatePost(context.Background(), author, req)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return view
}

// createAt seeds a post at a point with a fixed creation time.
func (f *fixture) createAt(t *testing.T, lng, lat float64, year int, created time.Time) *models.PostView {
	t.Helper()
	f.service.now = func() time.Time { return created }
	defer func() { f.service.now = time.Now }()
	req := romeRequest()
	req.Location.Coordinates = []float64{lng, lat}
	req.Year = intPtr(year)
	return f.createPost(t, 1, req)
}

func assertTallyConsistent(t *testing.T, p *models.Post) {
	t.Helper()
	if got := models.CountVotes(p.UserVotes); got != p.Votes {
		t.Fatalf("tally %+v does not match vote records %+v", p.Votes, got)
	}
	seen := map[uint]bool{}
	for _, v := range p.UserVotes {
		if seen[v.User] {
			t.Fatalf("user %d has more than one vote record: %+v", v.User, p.UserVotes)
		}
		seen[v.User] = true
	}
}
