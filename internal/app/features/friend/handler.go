// internal/app/features/friend/handler.go
package friend

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	uierrors "github.com/dalemusser/giftmatch/internal/app/features/errors"
	"github.com/dalemusser/giftmatch/internal/app/pairing"
	"github.com/dalemusser/giftmatch/internal/app/system/auth"
	"github.com/dalemusser/giftmatch/internal/app/system/timeouts"
)

// Handler serves each participant their assigned friend.
type Handler struct {
	Engine *pairing.Engine
	Log    *zap.Logger
}

// NewHandler constructs a friend Handler.
func NewHandler(engine *pairing.Engine, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Log: logger}
}

// ServeFriend handles GET /api/friend.
//
// Before an assignment run the response is {"assigned": false}; afterwards
// it includes the friend's name and phone. An assignment that points at a
// deleted participant is reported as a conflict for an organizer to resolve
// by re-running the matching.
func (h *Handler) ServeFriend(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		uierrors.ServerError(w, h.Log, "bad session participant id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Engine.ResolveFriend(ctx, id)
	if errors.Is(err, pairing.ErrDanglingAssignment) {
		h.Log.Warn("dangling assignment",
			zap.String("participant_id", u.ID))
		uierrors.Conflict(w, "your assigned friend is no longer registered; ask an organizer to re-run matching")
		return
	}
	if err != nil {
		uierrors.ServerError(w, h.Log, "failed to resolve friend", err)
		return
	}

	uierrors.JSON(w, http.StatusOK, res)
}
