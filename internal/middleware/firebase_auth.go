package middleware

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/timeline-globe/backend/internal/repositories"
)

// TokenVerifier is the part of the Firebase auth client used here.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuthenticator verifies Firebase ID tokens and maps the Firebase
// UID to the linked local user.
type FirebaseAuthenticator struct {
	verifier TokenVerifier
	users    repositories.UserRepository
}

// NewFirebaseAuthenticator creates a new FirebaseAuthenticator
func NewFirebaseAuthenticator(verifier TokenVerifier, users repositories.UserRepository) *FirebaseAuthenticator {
	return &FirebaseAuthenticator{verifier: verifier, users: users}
}

// Authenticate verifies idToken and resolves its Firebase UID to a user id.
func (a *FirebaseAuthenticator) Authenticate(ctx context.Context, idToken string) (uint, error) {
	token, err := a.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := a.users.GetUserByFirebaseUID(ctx, token.UID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return 0, fmt.Errorf("%w: no user linked to firebase uid", ErrInvalidToken)
		}
		return 0, fmt.Errorf("lookup firebase user: %w", err)
	}
	return user.ID, nil
}
