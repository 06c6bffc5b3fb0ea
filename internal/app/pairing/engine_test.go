package pairing_test

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/giftmatch/internal/app/pairing"
	auditstore "github.com/dalemusser/giftmatch/internal/app/store/audit"
	participantstore "github.com/dalemusser/giftmatch/internal/app/store/participants"
	"github.com/dalemusser/giftmatch/internal/testutil"
)

func newEngine(t *testing.T) (*pairing.Engine, *participantstore.Store, *auditstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	participants := participantstore.New(db)
	audit := auditstore.New(db)
	engine := pairing.NewEngine(participants, audit, zap.NewNop())
	return engine, participants, audit, testutil.NewFixtures(t, db)
}

func TestEngine_RunAssignment(t *testing.T) {
	engine, store, audit, fixtures := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pool := fixtures.CreatePool(ctx, 5)
	engine.SetShuffle(seededShuffle(11))

	res, err := engine.RunAssignment(ctx, nil)
	if err != nil {
		t.Fatalf("RunAssignment failed: %v", err)
	}
	if res.Assigned != 5 {
		t.Errorf("expected 5 assigned, got %d", res.Assigned)
	}
	if res.RunID == "" {
		t.Error("expected a run id")
	}

	// Every participant is a giver exactly once and a receiver exactly once,
	// and nobody is matched with themselves.
	received := make(map[primitive.ObjectID]int)
	for _, p := range pool {
		got, err := store.GetByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.AssignedID == nil {
			t.Fatalf("%s has no assignment", p.FullName)
		}
		if *got.AssignedID == p.ID {
			t.Errorf("%s assigned to themselves", p.FullName)
		}
		received[*got.AssignedID]++
	}
	if len(received) != 5 {
		t.Errorf("expected 5 distinct receivers, got %d", len(received))
	}

	events, err := audit.ListRecent(ctx, 5)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(events) != 1 || events[0].RunID != res.RunID {
		t.Errorf("expected an audit event for run %s, got %+v", res.RunID, events)
	}
}

func TestEngine_RunAssignment_ReplacesPrevious(t *testing.T) {
	engine, store, _, fixtures := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pool := fixtures.CreatePool(ctx, 4)

	engine.SetShuffle(seededShuffle(1))
	if _, err := engine.RunAssignment(ctx, nil); err != nil {
		t.Fatalf("RunAssignment failed: %v", err)
	}

	engine.SetShuffle(forcedShuffle([]int{2, 0, 3, 1}))
	if _, err := engine.RunAssignment(ctx, nil); err != nil {
		t.Fatalf("RunAssignment failed: %v", err)
	}

	// Second run overwrote the first; pool order is by folded name, which
	// matches creation order for the fixture names.
	got, err := store.GetByID(ctx, pool[2].ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.AssignedID == nil || *got.AssignedID != pool[0].ID {
		t.Errorf("expected %s to give to %s after rerun", pool[2].FullName, pool[0].FullName)
	}
}

func TestEngine_RunAssignment_TooFew(t *testing.T) {
	engine, store, _, fixtures := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	only := fixtures.CreateParticipant(ctx, "Lonely", "5735550190")

	_, err := engine.RunAssignment(ctx, nil)
	if !errors.Is(err, pairing.ErrInsufficientParticipants) {
		t.Fatalf("expected ErrInsufficientParticipants, got %v", err)
	}

	// No writes happen on a refused run.
	got, err := store.GetByID(ctx, only.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.AssignedID != nil {
		t.Error("expected no assignment after refused run")
	}
}

func TestEngine_RunAssignment_EmptyPool(t *testing.T) {
	engine, _, _, _ := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := engine.RunAssignment(ctx, nil)
	if !errors.Is(err, pairing.ErrInsufficientParticipants) {
		t.Fatalf("expected ErrInsufficientParticipants, got %v", err)
	}
}

func TestEngine_ResolveFriend(t *testing.T) {
	engine, _, _, fixtures := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pool := fixtures.CreatePool(ctx, 4)

	// Not yet assigned is a state, not an error.
	res, err := engine.ResolveFriend(ctx, pool[0].ID)
	if err != nil {
		t.Fatalf("ResolveFriend failed: %v", err)
	}
	if res.Assigned {
		t.Error("expected unassigned before a run")
	}
	if res.Friend != nil {
		t.Error("expected no friend before a run")
	}

	// Forced order [2 0 3 1]: pool[0] gives to pool[3].
	engine.SetShuffle(forcedShuffle([]int{2, 0, 3, 1}))
	if _, err := engine.RunAssignment(ctx, nil); err != nil {
		t.Fatalf("RunAssignment failed: %v", err)
	}

	res, err = engine.ResolveFriend(ctx, pool[0].ID)
	if err != nil {
		t.Fatalf("ResolveFriend failed: %v", err)
	}
	if !res.Assigned || res.Friend == nil {
		t.Fatal("expected an assigned friend after the run")
	}
	if res.Friend.ID != pool[3].ID.Hex() {
		t.Errorf("expected friend %s, got %s", pool[3].FullName, res.Friend.FullName)
	}
	if res.Friend.FullName != pool[3].FullName || res.Friend.Phone != pool[3].Phone {
		t.Errorf("friend view missing contact fields: %+v", res.Friend)
	}
}

func TestEngine_ResolveFriend_Dangling(t *testing.T) {
	engine, _, _, fixtures := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pool := fixtures.CreatePool(ctx, 3)
	engine.SetShuffle(seededShuffle(3))
	if _, err := engine.RunAssignment(ctx, nil); err != nil {
		t.Fatalf("RunAssignment failed: %v", err)
	}

	// Remove pool[0]'s friend out from under the assignment.
	p, err := participantstore.New(fixtures.DB()).GetByID(ctx, pool[0].ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if _, err := fixtures.DB().Collection("participants").DeleteOne(ctx, bson.M{"_id": *p.AssignedID}); err != nil {
		t.Fatalf("DeleteOne failed: %v", err)
	}

	_, err = engine.ResolveFriend(ctx, pool[0].ID)
	if !errors.Is(err, pairing.ErrDanglingAssignment) {
		t.Errorf("expected ErrDanglingAssignment, got %v", err)
	}
}

func TestEngine_ResolveFriend_UnknownParticipant(t *testing.T) {
	engine, _, _, _ := newEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res, err := engine.ResolveFriend(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("ResolveFriend failed: %v", err)
	}
	if res.Assigned {
		t.Error("unknown participant should resolve to not assigned")
	}
	if res.Friend != nil {
		t.Error("unknown participant should have no friend view")
	}
}

// flakyStore delegates to the real store but refuses assignment writes for
// chosen participants.
type flakyStore struct {
	pairing.ParticipantStore
	fail map[primitive.ObjectID]bool
}

func (f *flakyStore) SetAssigned(ctx context.Context, id, assignedID primitive.ObjectID) error {
	if f.fail[id] {
		return errors.New("write refused")
	}
	return f.ParticipantStore.SetAssigned(ctx, id, assignedID)
}

func TestEngine_RunAssignment_PartialFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	participants := participantstore.New(db)
	audit := auditstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pool := fixtures.CreatePool(ctx, 4)
	flaky := &flakyStore{
		ParticipantStore: participants,
		fail:             map[primitive.ObjectID]bool{pool[1].ID: true},
	}
	engine := pairing.NewEngine(flaky, audit, zap.NewNop())
	engine.SetShuffle(seededShuffle(7))

	res, err := engine.RunAssignment(ctx, nil)
	var partial *pairing.PartialFailure
	if !errors.As(err, &partial) {
		t.Fatalf("expected *PartialFailure, got %v", err)
	}
	if partial.RunID != res.RunID {
		t.Errorf("partial run id %q, want %q", partial.RunID, res.RunID)
	}
	if len(partial.FailedIDs) != 1 || partial.FailedIDs[0] != pool[1].ID {
		t.Errorf("FailedIDs = %v, want exactly [%s]", partial.FailedIDs, pool[1].ID.Hex())
	}
	if res.Assigned != 3 {
		t.Errorf("Assigned = %d, want 3", res.Assigned)
	}

	// The failed record keeps its prior (absent) assignment; the rest of the
	// pool holds values from this run: the documented mixed state.
	for i, p := range pool {
		got, err := participants.GetByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if i == 1 {
			if got.AssignedID != nil {
				t.Error("failed write should leave the record unassigned")
			}
			continue
		}
		if got.AssignedID == nil {
			t.Errorf("%s should hold an assignment from the run", p.FullName)
		}
	}

	// Re-running against a healthy store overwrites every record and
	// recovers the pool.
	flaky.fail = nil
	res, err = engine.RunAssignment(ctx, nil)
	if err != nil {
		t.Fatalf("recovery run failed: %v", err)
	}
	if res.Assigned != 4 {
		t.Errorf("recovery run Assigned = %d, want 4", res.Assigned)
	}

	received := make(map[primitive.ObjectID]int)
	for _, p := range pool {
		got, err := participants.GetByID(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.AssignedID == nil {
			t.Fatalf("%s has no assignment after recovery", p.FullName)
		}
		if *got.AssignedID == p.ID {
			t.Errorf("%s assigned to themselves", p.FullName)
		}
		received[*got.AssignedID]++
	}
	if len(received) != 4 {
		t.Errorf("expected 4 distinct receivers after recovery, got %d", len(received))
	}
}
