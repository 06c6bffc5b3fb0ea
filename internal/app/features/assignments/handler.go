// internal/app/features/assignments/handler.go
package assignments

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	uierrors "github.com/dalemusser/giftmatch/internal/app/features/errors"
	"github.com/dalemusser/giftmatch/internal/app/pairing"
	auditstore "github.com/dalemusser/giftmatch/internal/app/store/audit"
	participantstore "github.com/dalemusser/giftmatch/internal/app/store/participants"
	"github.com/dalemusser/giftmatch/internal/app/system/auth"
	"github.com/dalemusser/giftmatch/internal/app/system/timeouts"
)

// Handler owns the organizer endpoints: running assignments and viewing the
// roster. Routes are mounted behind RequireRole("admin").
type Handler struct {
	Engine       *pairing.Engine
	Participants *participantstore.Store
	Audit        *auditstore.Store
	Log          *zap.Logger
}

// NewHandler constructs an assignments Handler.
func NewHandler(engine *pairing.Engine, participants *participantstore.Store, audit *auditstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Engine:       engine,
		Participants: participants,
		Audit:        audit,
		Log:          logger,
	}
}

// runResponse reports the outcome of an assignment run.
type runResponse struct {
	RunID     string   `json:"run_id"`
	Assigned  int      `json:"assigned"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}

// HandleRun handles POST /api/admin/assignments/run.
//
// Re-running replaces every participant's assignment. When some of the
// per-participant writes fail, the response lists the ids that were not
// updated; running again recovers.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	var actorID *primitive.ObjectID
	if u != nil {
		if oid, err := primitive.ObjectIDFromHex(u.ID); err == nil {
			actorID = &oid
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Engine.RunAssignment(ctx, actorID)

	var partial *pairing.PartialFailure
	switch {
	case err == nil:
		uierrors.JSON(w, http.StatusOK, runResponse{
			RunID:    res.RunID,
			Assigned: res.Assigned,
		})
	case errors.Is(err, pairing.ErrInsufficientParticipants):
		uierrors.Conflict(w, "at least 2 registered participants are required")
	case errors.As(err, &partial):
		failed := make([]string, len(partial.FailedIDs))
		for i, id := range partial.FailedIDs {
			failed[i] = id.Hex()
		}
		uierrors.JSON(w, http.StatusInternalServerError, runResponse{
			RunID:     partial.RunID,
			Assigned:  res.Assigned,
			FailedIDs: failed,
		})
	default:
		uierrors.ServerError(w, h.Log, "assignment run failed", err)
	}
}

// rosterEntry is one participant in the organizer's roster view.
type rosterEntry struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Assigned bool   `json:"assigned"`
}

// ServeRoster handles GET /api/admin/participants.
func (h *Handler) ServeRoster(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	all, err := h.Participants.ListAll(ctx)
	if err != nil {
		uierrors.ServerError(w, h.Log, "failed to list participants", err)
		return
	}

	roster := make([]rosterEntry, len(all))
	for i, p := range all {
		roster[i] = rosterEntry{
			ID:       p.ID.Hex(),
			FullName: p.FullName,
			Email:    p.Email,
			Phone:    p.Phone,
			Role:     p.Role,
			Assigned: p.AssignedID != nil,
		}
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{
		"count":        len(roster),
		"participants": roster,
	})
}

// auditEntry is one audit event in the organizer's activity view.
type auditEntry struct {
	Kind      string `json:"kind"`
	RunID     string `json:"run_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Detail    string `json:"detail,omitempty"`
	IP        string `json:"ip,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ServeActivity handles GET /api/admin/activity.
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Audit.ListRecent(ctx, 100)
	if err != nil {
		uierrors.ServerError(w, h.Log, "failed to list audit events", err)
		return
	}

	out := make([]auditEntry, len(events))
	for i, ev := range events {
		out[i] = auditEntry{
			Kind:      ev.Kind,
			RunID:     ev.RunID,
			Email:     ev.Email,
			Detail:    ev.Detail,
			IP:        ev.IP,
			CreatedAt: ev.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{"events": out})
}
