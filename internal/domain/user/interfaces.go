package user

import "context"

// Repository provides persistence for users and their API keys.
type Repository interface {
	Create(ctx context.Context, u *User) error
	ListIDs(ctx context.Context) ([]string, error)
	AddAPIKey(ctx context.Context, userID, keyHash, description string) error
	// UserIDForKey returns the owner of a hashed key and records its use.
	UserIDForKey(ctx context.Context, keyHash string) (string, error)
}
