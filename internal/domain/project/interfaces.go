package project

import "context"

// ResolverRepository is the persistence the resolver needs during a rollup pass.
type ResolverRepository interface {
	Get(ctx context.Context, userID, id string) (*Project, error)
	GetByFolder(ctx context.Context, userID, folder string) (*Project, error)
	Create(ctx context.Context, userID string, proj *Project) error
	// AppendBranches merges the given names into each project's stored
	// branch set. Existing names are never removed.
	AppendBranches(ctx context.Context, userID string, branches map[string][]string) error
}

// Repository provides persistence for projects.
type Repository interface {
	ResolverRepository
	List(ctx context.Context, userID string) ([]ProjectSummary, error)
	ListChildren(ctx context.Context, userID, parentID string) ([]Project, error)
	// Reparent stores the new parent of id and repoints the root reference of
	// every aggregate row owned by subtree to rootID, in one transaction.
	Reparent(ctx context.Context, userID, id string, parentID *string, subtree []string, rootID string) error
}

// UserLocker serializes work that reads or rewrites one user's project tree.
type UserLocker interface {
	LockUser(userID string) (unlock func())
}
