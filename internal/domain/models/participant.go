// internal/domain/models/participant.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participant is one admitted member of the gift exchange.
//
// NOTE:
//   - GoogleID is the identity provider's stable account id and never changes.
//   - AssignedID is written only by assignment runs; every other field is
//     immutable after admission.
type Participant struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GoogleID   string             `bson:"google_id" json:"google_id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone      string             `bson:"phone" json:"phone"`
	Role       string             `bson:"role" json:"role"` // participant | admin

	// AssignedID points at the participant this person gives a gift to.
	// Nil until the first assignment run completes for this record.
	AssignedID *primitive.ObjectID `bson:"assigned_id,omitempty" json:"assigned_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Complete reports whether the record carries everything admission requires.
// A participant that signed in but never finished the registration form has
// a record with empty name or phone and must be sent back to the form.
func (p *Participant) Complete() bool {
	return p != nil && p.FullName != "" && p.Phone != ""
}
