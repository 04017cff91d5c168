package httpx

import (
	"context"
	"fmt"
)

type AccessChecker interface {
	CanAccess(ctx context.Context, scope, target int64) (bool, error)
}

// RequireAccess fails with ErrForbidden unless target lies in the caller's location subtree.
func RequireAccess(ctx context.Context, ac AccessChecker, target int64) error {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	allowed, err := ac.CanAccess(ctx, p.LocationID, target)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("location %d: %w", target, ErrForbidden)
	}
	return nil
}
