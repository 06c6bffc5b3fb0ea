// internal/app/pairing/engine.go
package pairing

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	auditstore "github.com/dalemusser/giftmatch/internal/app/store/audit"
	"github.com/dalemusser/giftmatch/internal/domain/models"
)

// ParticipantStore is the store surface the engine needs.
// *participantstore.Store satisfies it; tests substitute wrappers to force
// write failures.
type ParticipantStore interface {
	ListAll(ctx context.Context) ([]models.Participant, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Participant, error)
	SetAssigned(ctx context.Context, id, assignedID primitive.ObjectID) error
}

// ErrDanglingAssignment is returned when a participant's assigned friend no
// longer exists in the store.
var ErrDanglingAssignment = errors.New("assigned friend record no longer exists")

// PartialFailure reports an assignment run where some per-participant writes
// failed. The participants not listed were updated; re-running the
// assignment replaces every record's assignment and recovers.
type PartialFailure struct {
	RunID     string
	FailedIDs []primitive.ObjectID
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("assignment run %s: %d of the writes failed", e.RunID, len(e.FailedIDs))
}

// RunResult summarizes a completed assignment run.
type RunResult struct {
	RunID    string
	Assigned int
}

// FriendView is the subset of a participant shown to their gift giver.
type FriendView struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// Resolution is the answer to "who is my friend?". Assigned is false when no
// run has included the participant yet.
type Resolution struct {
	Assigned bool        `json:"assigned"`
	Friend   *FriendView `json:"friend,omitempty"`
}

// Engine runs assignments over the registered pool and resolves them for
// display.
type Engine struct {
	participants ParticipantStore
	audit        *auditstore.Store
	log          *zap.Logger
	shuffle      ShuffleFunc
}

// NewEngine builds an Engine using the process-wide random source.
func NewEngine(participants ParticipantStore, audit *auditstore.Store, logger *zap.Logger) *Engine {
	return &Engine{
		participants: participants,
		audit:        audit,
		log:          logger,
		shuffle:      rand.Shuffle,
	}
}

// SetShuffle swaps the permutation source. Tests install seeded or forced
// shuffles here.
func (e *Engine) SetShuffle(f ShuffleFunc) { e.shuffle = f }

// RunAssignment assigns every registered participant a friend and persists
// the mapping. Each participant document gets a merge write of its
// assigned_id only; a failed write is collected rather than aborting the
// run, and the returned *PartialFailure lists the ids whose documents were
// not updated.
func (e *Engine) RunAssignment(ctx context.Context, actorID *primitive.ObjectID) (RunResult, error) {
	pool, err := e.participants.ListAll(ctx)
	if err != nil {
		return RunResult{}, err
	}

	ids := make([]primitive.ObjectID, len(pool))
	for i, p := range pool {
		ids[i] = p.ID
	}

	plan, err := Plan(ids, e.shuffle)
	if err != nil {
		return RunResult{}, err
	}

	runID := uuid.NewString()
	var failed []primitive.ObjectID
	for giver, receiver := range plan {
		if err := e.participants.SetAssigned(ctx, giver, receiver); err != nil {
			e.log.Error("assignment write failed",
				zap.String("run_id", runID),
				zap.String("participant_id", giver.Hex()),
				zap.Error(err))
			failed = append(failed, giver)
		}
	}

	detail := fmt.Sprintf("assigned %d of %d participants", len(plan)-len(failed), len(plan))
	if err := e.audit.RecordRun(ctx, runID, detail, actorID); err != nil {
		e.log.Warn("audit write failed", zap.String("run_id", runID), zap.Error(err))
	}

	res := RunResult{RunID: runID, Assigned: len(plan) - len(failed)}
	e.log.Info("assignment run finished",
		zap.String("run_id", runID),
		zap.Int("assigned", res.Assigned),
		zap.Int("failed", len(failed)))

	if len(failed) > 0 {
		return res, &PartialFailure{RunID: runID, FailedIDs: failed}
	}
	return res, nil
}

// ResolveFriend looks up the participant's assigned friend. A missing record
// or one with no assignment yet resolves to Assigned=false, which callers
// should present as "not yet assigned" rather than an error. An assignment
// pointing at a deleted record returns ErrDanglingAssignment.
func (e *Engine) ResolveFriend(ctx context.Context, participantID primitive.ObjectID) (Resolution, error) {
	p, err := e.participants.GetByID(ctx, participantID)
	if err == mongo.ErrNoDocuments {
		return Resolution{Assigned: false}, nil
	}
	if err != nil {
		return Resolution{}, err
	}

	if p.AssignedID == nil {
		return Resolution{Assigned: false}, nil
	}

	friend, err := e.participants.GetByID(ctx, *p.AssignedID)
	if err == mongo.ErrNoDocuments {
		return Resolution{}, ErrDanglingAssignment
	}
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{
		Assigned: true,
		Friend: &FriendView{
			ID:       friend.ID.Hex(),
			FullName: friend.FullName,
			Phone:    friend.Phone,
		},
	}, nil
}
