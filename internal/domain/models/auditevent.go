// internal/domain/models/auditevent.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit event kinds.
const (
	AuditSignIn        = "signin"
	AuditRegistration  = "registration"
	AuditAssignmentRun = "assignment_run"
)

// AuditEvent is an append-only record of a notable action: a Google sign-in,
// a completed registration, or an operator assignment run.
type AuditEvent struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Kind          string              `bson:"kind" json:"kind"`
	ParticipantID *primitive.ObjectID `bson:"participant_id,omitempty" json:"participant_id,omitempty"`
	Email         string              `bson:"email,omitempty" json:"email,omitempty"`
	RunID         string              `bson:"run_id,omitempty" json:"run_id,omitempty"` // assignment runs only
	Detail        string              `bson:"detail,omitempty" json:"detail,omitempty"`
	IP            string              `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent     string              `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
}
