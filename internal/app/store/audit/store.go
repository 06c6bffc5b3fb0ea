// internal/app/store/audit/store.go
package auditstore

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/giftmatch/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Create inserts an AuditEvent. If CreatedAt is zero, it's set to time.Now().UTC().
func (s *Store) Create(ctx context.Context, ev models.AuditEvent) error {
	if ev.ID == primitive.NilObjectID {
		ev.ID = primitive.NewObjectID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, ev)
	return err
}

// CreateFrom builds an AuditEvent from the HTTP request and inserts it.
// It extracts client IP (X-Forwarded-For → X-Real-IP → RemoteAddr) and user agent.
func (s *Store) CreateFrom(ctx context.Context, r *http.Request, kind string, participantID *primitive.ObjectID, email, detail string) error {
	return s.Create(ctx, models.AuditEvent{
		Kind:          kind,
		ParticipantID: participantID,
		Email:         email,
		Detail:        detail,
		IP:            clientIP(r),
		UserAgent:     r.UserAgent(),
	})
}

// RecordRun inserts an assignment-run event keyed by the run id.
func (s *Store) RecordRun(ctx context.Context, runID, detail string, actorID *primitive.ObjectID) error {
	return s.Create(ctx, models.AuditEvent{
		Kind:          models.AuditAssignmentRun,
		ParticipantID: actorID,
		RunID:         runID,
		Detail:        detail,
	})
}

// ListRecent returns the newest events first, capped at limit.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]models.AuditEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.AuditEvent
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func clientIP(r *http.Request) string {
	// Respect common proxy headers first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// XFF may contain a list; first is original client
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		return strings.TrimSpace(xr)
	}
	// Fallback: parse RemoteAddr "ip:port"
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
