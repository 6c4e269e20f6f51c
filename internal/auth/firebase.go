package auth

import (
	"context"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"
)

// Firebase verifies ID tokens against the project's identity provider.
type Firebase struct {
	client *fbauth.Client
}

func NewFirebase(client *fbauth.Client) *Firebase {
	return &Firebase{client: client}
}

func (f *Firebase) Verify(ctx context.Context, idToken string) (Identity, error) {
	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	id := Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	return id, nil
}
