package userstore

import (
	"context"

	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/threadhub/internal/domain/models"
)

// ResolveUser implements auth.Resolver, loading the caller's profile on each
// request. A missing profile is NotFound; the identity middleware treats that
// as "signed in, not onboarded".
func (s *Store) ResolveUser(ctx context.Context, externalID string) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	return s.GetByExternalID(ctx, externalID)
}
