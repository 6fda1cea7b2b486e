package repositories

import (
	"context"
	"errors"
	"sync"

	"github.com/anonto42/timeline-globe/backend/internal/models"
	"gorm.io/gorm"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the read-only user lookups needed to display post authors
type UserRepository interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// Migrate makes sure the users table exists.
func (r *PostgresUserRepository) Migrate() error {
	return r.db.AutoMigrate(&models.User{})
}

// GetUserByID retrieves a user by ID from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs loads users in one query, keyed by ID. Missing IDs are absent from the map.
func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	result := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// GetUserByFirebaseUID retrieves a user by Firebase UID from PostgreSQL
func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// MemoryUserRepository implements UserRepository in process memory.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uint]models.User
}

// NewMemoryUserRepository creates a MemoryUserRepository holding users.
func NewMemoryUserRepository(users ...models.User) *MemoryUserRepository {
	r := &MemoryUserRepository{users: make(map[uint]models.User, len(users))}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

// Put inserts or replaces a user.
func (r *MemoryUserRepository) Put(u models.User) {
	r.mu.Lock()
	r.users[u.ID] = u
	r.mu.Unlock()
}

// GetUserByID returns a copy of the stored user.
func (r *MemoryUserRepository) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// GetUsersByIDs returns the known users keyed by ID.
func (r *MemoryUserRepository) GetUsersByIDs(_ context.Context, ids []uint) (map[uint]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[uint]models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

// GetUserByFirebaseUID finds a user by Firebase UID.
func (r *MemoryUserRepository) GetUserByFirebaseUID(_ context.Context, firebaseUID string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.FirebaseUID != nil && *u.FirebaseUID == firebaseUID {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}
