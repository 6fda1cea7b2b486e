package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeoJSONPoint is the only GeoJSON geometry type posts are pinned with.
const GeoJSONPoint = "Point"

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// NewGeoPoint builds a GeoJSON point from a longitude/latitude pair.
func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: GeoJSONPoint, Coordinates: []float64{lng, lat}}
}

// Lng returns the longitude component.
func (p GeoPoint) Lng() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

// Lat returns the latitude component.
func (p GeoPoint) Lat() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// Location is where a post is pinned. In JSON the point fields are inlined
// next to the name; in MongoDB the point lives in its own subdocument so the
// 2dsphere index covers a pure GeoJSON object.
type Location struct {
	GeoPoint `bson:"point"`
	Name     string `json:"name" bson:"name"`
}

// VoteTally holds the aggregate up/down counters of a post.
type VoteTally struct {
	Up   int `json:"up" bson:"up"`
	Down int `json:"down" bson:"down"`
}

// UserVote records the active vote of a single user on a post.
type UserVote struct {
	User     uint     `json:"user" bson:"user"`
	VoteType VoteType `json:"voteType" bson:"vote_type"`
}

// Media is an attachment shown alongside a post.
type Media struct {
	Type string `json:"type" bson:"type" validate:"required,max=32"`
	URL  string `json:"url" bson:"url" validate:"required,url"`
}

// Post is a historical annotation pinned to a place and a year, stored in MongoDB.
type Post struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Content   string             `json:"content" bson:"content"`
	Location  Location           `json:"location" bson:"location"`
	Year      int                `json:"year" bson:"year"`
	AuthorID  uint               `json:"-" bson:"author"`
	Votes     VoteTally          `json:"votes" bson:"votes"`
	UserVotes []UserVote         `json:"userVotes" bson:"user_votes"`
	Media     []Media            `json:"media" bson:"media"`
	Version   int64              `json:"-" bson:"version"`
	Distance  *float64           `json:"distance,omitempty" bson:"distance,omitempty"` // meters, set by proximity queries only
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}

// Clone returns a deep copy so callers can mutate slices without touching the original.
func (p *Post) Clone() *Post {
	cp := *p
	cp.Location.Coordinates = append([]float64(nil), p.Location.Coordinates...)
	cp.UserVotes = append([]UserVote(nil), p.UserVotes...)
	cp.Media = append([]Media(nil), p.Media...)
	if p.Distance != nil {
		d := *p.Distance
		cp.Distance = &d
	}
	return &cp
}

// PostView is a post with its author resolved for display.
type PostView struct {
	Post
	Author UserCompact `json:"author"`
}

// LocationInput is the wire shape of a location in create/update requests.
type LocationInput struct {
	Type        string    `json:"type" validate:"omitempty,eq=Point"`
	Coordinates []float64 `json:"coordinates" validate:"required,lnglat"`
	Name        string    `json:"name" validate:"required,max=200"`
}

// ToLocation converts the request shape into the stored location.
func (in LocationInput) ToLocation() Location {
	return Location{
		GeoPoint: NewGeoPoint(in.Coordinates[0], in.Coordinates[1]),
		Name:     in.Name,
	}
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content  string         `json:"content" validate:"required,notblank,max=2000"`
	Location *LocationInput `json:"location" validate:"required"`
	Year     *int           `json:"year" validate:"required"`
	Media    []Media        `json:"media,omitempty" validate:"omitempty,max=10,dive"`
}

// UpdatePostRequest defines the request body for updating an existing post.
// Only non-nil fields are applied.
type UpdatePostRequest struct {
	Content  *string        `json:"content,omitempty" validate:"omitempty,notblank,max=2000"`
	Location *LocationInput `json:"location,omitempty"`
	Year     *int           `json:"year,omitempty"`
	Media    []Media        `json:"media,omitempty" validate:"omitempty,max=10,dive"`
}

// IsEmpty reports whether the request changes nothing.
func (r UpdatePostRequest) IsEmpty() bool {
	return r.Content == nil && r.Location == nil && r.Year == nil && r.Media == nil
}

// PostPatch is the set of mutable fields applied by an author update.
type PostPatch struct {
	Content  *string
	Location *Location
	Year     *int
	Media    []Media
}

// PostFilter configures a post query.
type PostFilter struct {
	Year *int
	// Near restricts results to posts within RadiusMeters of the point,
	// measured on the sphere.
	Near         *GeoPoint
	RadiusMeters float64
	Skip         int64
	Limit        int64
}

// PostQuery is the raw browse request; nil fields were not supplied.
type PostQuery struct {
	Year         *int
	Lat          *float64
	Lng          *float64
	RadiusMeters *float64
	Skip         int64
	Limit        int64
}
