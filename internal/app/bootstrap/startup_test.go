package bootstrap

import (
	"testing"

	"github.com/dalemusser/giftmatch/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/dalemusser/giftmatch/internal/domain/models"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureAdmins_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fixtures.CreateParticipant(ctx, "Future Admin", "5735550150")
	other := fixtures.CreateParticipant(ctx, "Regular", "5735550151")

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmins(ctx, deps, []string{"  " + p.Email + "  "}, testLogger()); err != nil {
		t.Fatalf("ensureAdmins failed: %v", err)
	}

	var got models.Participant
	if err := db.Collection("participants").FindOne(ctx, bson.M{"_id": p.ID}).Decode(&got); err != nil {
		t.Fatalf("failed to find participant: %v", err)
	}
	if got.Role != "admin" {
		t.Errorf("expected role admin, got %q", got.Role)
	}

	if err := db.Collection("participants").FindOne(ctx, bson.M{"_id": other.ID}).Decode(&got); err != nil {
		t.Fatalf("failed to find participant: %v", err)
	}
	if got.Role != "participant" {
		t.Errorf("expected untouched role, got %q", got.Role)
	}
}

func TestEnsureAdmins_EmptyList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmins(ctx, deps, nil, testLogger()); err != nil {
		t.Fatalf("ensureAdmins failed: %v", err)
	}
}
