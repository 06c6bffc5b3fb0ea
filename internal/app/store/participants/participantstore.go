// internal/app/store/participants/participantstore.go
package participantstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/giftmatch/internal/app/system/inputval"
	"github.com/dalemusser/giftmatch/internal/app/system/normalize"
	"github.com/dalemusser/giftmatch/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("participants")}
}

var (
	// ErrDuplicateContact is returned when another participant already
	// registered the same phone number.
	ErrDuplicateContact = errors.New("contact already registered")

	// ErrDuplicateIdentity is returned when the identity provider account
	// already has a participant record.
	ErrDuplicateIdentity = errors.New("identity already registered")

	errBadRole = errors.New(`role must be "participant"|"admin"`)
)

// GetByID loads a participant by ObjectID.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Participant, error) {
	var p models.Participant
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByGoogleID looks up a participant by the identity provider's account id.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (*models.Participant, error) {
	var p models.Participant
	if err := s.c.FindOne(ctx, bson.M{"google_id": googleID}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PhoneExists reports whether any participant already holds the given phone
// number. The number is canonicalized before the query.
func (s *Store) PhoneExists(ctx context.Context, phone string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"phone": normalize.Phone(phone)}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// Create inserts a new participant after normalizing fields. The unique
// indexes on google_id and phone backstop admission's uniqueness check; a
// duplicate-key error is mapped to the matching sentinel.
func (s *Store) Create(ctx context.Context, p models.Participant) (models.Participant, error) {
	p.ID = primitive.NewObjectID()
	p.GoogleID = normalize.Name(p.GoogleID)
	p.FullName = normalize.Name(p.FullName)
	p.FullNameCI = text.Fold(p.FullName)
	p.Email = normalize.Email(p.Email)
	p.Phone = normalize.Phone(p.Phone)
	if p.Role == "" {
		p.Role = "participant"
	}

	if !inputval.IsValidRole(p.Role) {
		return models.Participant{}, errBadRole
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			// Two unique indexes can fire; phone is the one admission
			// surfaces to users, identity collisions come from replays.
			exists, checkErr := s.PhoneExists(ctx, p.Phone)
			if checkErr == nil && !exists {
				return models.Participant{}, ErrDuplicateIdentity
			}
			return models.Participant{}, ErrDuplicateContact
		}
		return models.Participant{}, err
	}
	return p, nil
}

// CompleteProfile merge-writes the registration fields onto an existing
// record. Used when a participant record exists but registration never
// finished; all other fields keep their values. The unique phone index
// still applies, so a taken number surfaces ErrDuplicateContact.
func (s *Store) CompleteProfile(ctx context.Context, id primitive.ObjectID, fullName, phone string) (*models.Participant, error) {
	fullName = normalize.Name(fullName)
	update := bson.M{"$set": bson.M{
		"full_name":    fullName,
		"full_name_ci": text.Fold(fullName),
		"phone":        normalize.Phone(phone),
		"updated_at":   time.Now().UTC(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Participant
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&p); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateContact
		}
		return nil, err
	}
	return &p, nil
}

// ListAll returns every participant, sorted by folded name for stable
// roster display.
func (s *Store) ListAll(ctx context.Context) ([]models.Participant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Participant
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetAssigned merge-writes assigned_id on one participant document. All
// other fields are untouched; assignment runs call this once per pool
// member and there is no cross-document transaction.
func (s *Store) SetAssigned(ctx context.Context, id, assignedID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"assigned_id": assignedID,
			"updated_at":  time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Count returns the number of admitted participants.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
