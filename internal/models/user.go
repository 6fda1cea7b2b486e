package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is owned by the identity service; this service only reads it to
// display post authors.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"uniqueIndex"`
	Email       string    `json:"-" gorm:"uniqueIndex"`
	IsVerified  bool      `json:"isVerified" gorm:"default:false"`
	FirebaseUID *string   `json:"-" gorm:"uniqueIndex"` // Link to Firebase User UID
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UserCompact is the read-only author projection attached to posts.
type UserCompact struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	IsVerified bool   `json:"isVerified"`
}

// ToCompact projects the user onto its display fields.
func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Username: u.Username, IsVerified: u.IsVerified}
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint `json:"userId"`
	jwt.RegisteredClaims
}
