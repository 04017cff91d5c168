package location

import (
	"context"
	"fmt"
	"slices"
)

// Hierarchy answers traversal questions with one bulk Store load per call.
type Hierarchy struct {
	store Store
}

func NewHierarchy(store Store) *Hierarchy { return &Hierarchy{store: store} }

func (h *Hierarchy) AccessibleIDs(ctx context.Context, id int64) ([]int64, error) {
	nodes, err := h.store.Subtree(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load subtree: %w", err)
	}
	return NewForest(nodes).AccessibleIDs(id)
}

func (h *Hierarchy) ParentUsers(ctx context.Context, id int64) ([]UserRef, error) {
	nodes, err := h.store.Ancestry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load ancestry: %w", err)
	}
	return NewForest(nodes).ParentUsers(id)
}

// CanAccess reports whether target lies in the subtree rooted at scope.
// An unknown scope fails with ErrNotFound, even when it equals target.
func (h *Hierarchy) CanAccess(ctx context.Context, scope, target int64) (bool, error) {
	ids, err := h.AccessibleIDs(ctx, scope)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, target), nil
}
