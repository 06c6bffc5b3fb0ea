package participantstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/giftmatch/internal/app/system/auth"
)

// Fetcher adapts the store to auth.UserFetcher so the session middleware can
// reload the signed-in participant on every request.
type Fetcher struct {
	Store *Store
}

func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	p, err := f.Store.GetByID(ctx, oid)
	if err != nil || p == nil {
		return nil
	}
	return &auth.SessionUser{
		ID:    p.ID.Hex(),
		Name:  p.FullName,
		Email: p.Email,
		Role:  p.Role,
	}
}
