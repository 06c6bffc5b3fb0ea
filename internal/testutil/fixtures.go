package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dalemusser/giftmatch/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateParticipant inserts a fully registered participant and returns it.
func (f *Fixtures) CreateParticipant(ctx context.Context, fullName, phone string) models.Participant {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Participant{
		ID:         primitive.NewObjectID(),
		GoogleID:   fmt.Sprintf("google-%s", primitive.NewObjectID().Hex()),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      fmt.Sprintf("%s@example.com", primitive.NewObjectID().Hex()),
		Phone:      phone,
		Role:       "participant",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("participants").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test participant: %v", err)
	}

	return p
}

// CreateAdmin inserts a participant with the admin role.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, phone string) models.Participant {
	f.t.Helper()

	p := f.CreateParticipant(ctx, fullName, phone)
	_, err := f.db.Collection("participants").UpdateByID(ctx, p.ID,
		map[string]any{"$set": map[string]any{"role": "admin"}})
	if err != nil {
		f.t.Fatalf("failed to promote test participant: %v", err)
	}
	p.Role = "admin"
	return p
}

// CreatePool inserts n registered participants with distinct phones.
func (f *Fixtures) CreatePool(ctx context.Context, n int) []models.Participant {
	f.t.Helper()

	out := make([]models.Participant, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("Participant %02d", i)
		phone := fmt.Sprintf("57355500%02d", i)
		out = append(out, f.CreateParticipant(ctx, name, phone))
	}
	return out
}
