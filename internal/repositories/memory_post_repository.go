package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/timeline-globe/backend/internal/models"
	"github.com/golang/geo/s2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EarthRadiusMeters is the radius MongoDB uses for spherical GeoJSON distances.
const EarthRadiusMeters = 6378100.0

// SphericalDistance returns the great-circle distance in meters between two
// points.
func SphericalDistance(a, b models.GeoPoint) float64 {
	from := s2.LatLngFromDegrees(a.Lat(), a.Lng())
	to := s2.LatLngFromDegrees(b.Lat(), b.Lng())
	return from.Distance(to).Radians() * EarthRadiusMeters
}

type memoryPost struct {
	mu   sync.Mutex
	post *models.Post
}

// MemoryPostRepository implements PostRepository in process memory. Each post
// has its own lock, so writes to different posts never contend.
type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts map[primitive.ObjectID]*memoryPost
	now   func() time.Time
}

// NewMemoryPostRepository creates an empty MemoryPostRepository
func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{
		posts: make(map[primitive.ObjectID]*memoryPost),
		now:   time.Now,
	}
}

func (r *MemoryPostRepository) entry(id string) (*memoryPost, bool) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.posts[objID]
	return e, ok
}

// CreatePost assigns a new id and stores a copy of post.
func (r *MemoryPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	post.ID = primitive.NewObjectID()
	if post.UserVotes == nil {
		post.UserVotes = []models.UserVote{}
	}
	if post.Media == nil {
		post.Media = []models.Media{}
	}

	r.mu.Lock()
	r.posts[post.ID] = &memoryPost{post: post.Clone()}
	r.mu.Unlock()
	return nil
}

// GetPostByID returns a copy of the post.
func (r *MemoryPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := r.entry(id)
	if !ok {
		return nil, ErrPostNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.post == nil {
		return nil, ErrPostNotFound
	}
	return e.post.Clone(), nil
}

// FindPosts filters and orders posts the way MongoPostRepository.FindPosts does.
func (r *MemoryPostRepository) FindPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	entries := make([]*memoryPost, 0, len(r.posts))
	for _, e := range r.posts {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	posts := []models.Post{}
	for _, e := range entries {
		e.mu.Lock()
		p := e.post
		if p != nil {
			p = p.Clone()
		}
		e.mu.Unlock()
		if p == nil {
			continue
		}
		if filter.Year != nil && p.Year != *filter.Year {
			continue
		}
		if filter.Near != nil {
			d := SphericalDistance(*filter.Near, p.Location.GeoPoint)
			if d > filter.RadiusMeters {
				continue
			}
			p.Distance = &d
		}
		posts = append(posts, *p)
	}

	sort.Slice(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if filter.Near != nil && *a.Distance != *b.Distance {
			return *a.Distance < *b.Distance
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.Hex() > b.ID.Hex()
	})

	if filter.Skip > 0 {
		if filter.Skip >= int64(len(posts)) {
			return []models.Post{}, nil
		}
		posts = posts[filter.Skip:]
	}
	if filter.Limit > 0 && int64(len(posts)) > filter.Limit {
		posts = posts[:filter.Limit]
	}
	return posts, nil
}

// UpdatePost applies patch to a post owned by authorID.
func (r *MemoryPostRepository) UpdatePost(ctx context.Context, id string, authorID uint, patch models.PostPatch) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := r.entry(id)
	if !ok {
		return nil, ErrPostNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.post == nil || e.post.AuthorID != authorID {
		return nil, ErrPostNotFound
	}

	p := e.post.Clone()
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Location != nil {
		p.Location = *patch.Location
		p.Location.Coordinates = append([]float64(nil), patch.Location.Coordinates...)
	}
	if patch.Year != nil {
		p.Year = *patch.Year
	}
	if patch.Media != nil {
		p.Media = append([]models.Media(nil), patch.Media...)
	}
	p.UpdatedAt = r.now()
	e.post = p
	return p.Clone(), nil
}

// DeletePost removes a post owned by authorID.
func (r *MemoryPostRepository) DeletePost(ctx context.Context, id string, authorID uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e, ok := r.entry(id)
	if !ok {
		return ErrPostNotFound
	}
	e.mu.Lock()
	if e.post == nil || e.post.AuthorID != authorID {
		e.mu.Unlock()
		return ErrPostNotFound
	}
	objID := e.post.ID
	// Tombstone the entry first so concurrent holders of e see the delete.
	e.post = nil
	e.mu.Unlock()

	r.mu.Lock()
	delete(r.posts, objID)
	r.mu.Unlock()
	return nil
}

// SwapVotes replaces the votes under the post lock if the version still matches.
func (r *MemoryPostRepository) SwapVotes(ctx context.Context, id string, expectedVersion int64, votes models.VoteTally, userVotes []models.UserVote) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := r.entry(id)
	if !ok {
		return nil, ErrPostNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.post == nil {
		return nil, ErrVersionConflict
	}
	if e.post.Version != expectedVersion {
		return nil, ErrVersionConflict
	}

	p := e.post.Clone()
	p.Votes = votes
	p.UserVotes = append([]models.UserVote{}, userVotes...)
	p.Version++
	p.UpdatedAt = r.now()
	e.post = p
	return p.Clone(), nil
}
