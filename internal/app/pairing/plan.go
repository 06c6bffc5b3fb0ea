// internal/app/pairing/plan.go
package pairing

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShuffleFunc permutes n elements via swap, matching the signature of
// rand.Shuffle so any seeded source can stand in during tests.
type ShuffleFunc func(n int, swap func(i, j int))

// ErrInsufficientParticipants is returned when fewer than two participants
// are in the pool; a single participant would have to gift themselves.
var ErrInsufficientParticipants = errors.New("at least 2 participants are required")

// Plan produces the giver-to-receiver mapping for one assignment run. The
// ids are shuffled into a uniformly random order and each entry gives to its
// cyclic successor, so the result is a single cycle over all participants:
// nobody is assigned themselves and everybody both gives and receives
// exactly once.
func Plan(ids []primitive.ObjectID, shuffle ShuffleFunc) (map[primitive.ObjectID]primitive.ObjectID, error) {
	if len(ids) < 2 {
		return nil, ErrInsufficientParticipants
	}

	order := make([]primitive.ObjectID, len(ids))
	copy(order, ids)
	shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	plan := make(map[primitive.ObjectID]primitive.ObjectID, len(order))
	for i, giver := range order {
		plan[giver] = order[(i+1)%len(order)]
	}
	return plan, nil
}
