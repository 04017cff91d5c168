package location

import "context"

// Store loads whole slices of the hierarchy in one round trip.
// Both methods return ErrNotFound when the start node does not exist.
type Store interface {
	Subtree(ctx context.Context, rootID int64) ([]Node, error)
	Ancestry(ctx context.Context, id int64) ([]Node, error)
}

type Repo interface {
	Create(ctx context.Context, n *Node) error
	GetByID(ctx context.Context, id int64) (*Node, error)
	ListChildren(ctx context.Context, id int64) ([]*Node, error)
	ListUsers(ctx context.Context, id int64) ([]UserRef, error)
}
