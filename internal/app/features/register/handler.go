// internal/app/features/register/handler.go
package register

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/giftmatch/internal/app/admission"
	uierrors "github.com/dalemusser/giftmatch/internal/app/features/errors"
	auditstore "github.com/dalemusser/giftmatch/internal/app/store/audit"
	participantstore "github.com/dalemusser/giftmatch/internal/app/store/participants"
	"github.com/dalemusser/giftmatch/internal/app/system/auth"
	"github.com/dalemusser/giftmatch/internal/app/system/limits"
	"github.com/dalemusser/giftmatch/internal/app/system/ratelimit"
	"github.com/dalemusser/giftmatch/internal/app/system/timeouts"
	"github.com/dalemusser/giftmatch/internal/domain/models"
)

// Handler owns the registration endpoints.
type Handler struct {
	Admission  *admission.Controller
	SessionMgr *auth.SessionManager
	Audit      *auditstore.Store
	Limiter    *ratelimit.AuthLimiter
	Log        *zap.Logger
}

// NewHandler constructs a register Handler.
func NewHandler(ctrl *admission.Controller, sessionMgr *auth.SessionManager, audit *auditstore.Store, limiter *ratelimit.AuthLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Admission:  ctrl,
		SessionMgr: sessionMgr,
		Audit:      audit,
		Limiter:    limiter,
		Log:        logger,
	}
}

// statusResponse tells the client where the current visitor stands.
type statusResponse struct {
	Status string `json:"status"` // anonymous | needs_registration | registered
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

// ServeStatus handles GET /register.
//
// For a signed-in participant it reports "registered". For a verified
// identity that has not registered yet it reports "needs_registration" with
// the Google profile's name and email as form prefills.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		uierrors.JSON(w, http.StatusOK, statusResponse{
			Status: "registered",
			Name:   u.Name,
			Email:  u.Email,
		})
		return
	}

	if pending, ok := h.SessionMgr.PendingIdentity(r); ok {
		uierrors.JSON(w, http.StatusOK, statusResponse{
			Status: "needs_registration",
			Name:   pending.Name,
			Email:  pending.Email,
		})
		return
	}

	uierrors.JSON(w, http.StatusOK, statusResponse{Status: "anonymous"})
}

// registerRequest is the POST /register payload.
type registerRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// registerResponse echoes the created participant.
type registerResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// HandleComplete handles POST /register.
//
// Requires a pending identity from the OAuth callback. On success the
// participant record is created and the session switches to signed-in.
// Validation failures return 422; a phone already registered returns 409.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		uierrors.Conflict(w, "already registered")
		return
	}

	pending, ok := h.SessionMgr.PendingIdentity(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	if h.Limiter != nil {
		if allowed, reason := h.Limiter.Check(r, pending.GoogleID); !allowed {
			uierrors.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxRegisterBodySize)
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.BadRequest(w, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	identity := admission.Identity{
		ProviderID: pending.GoogleID,
		Name:       pending.Name,
		Email:      pending.Email,
	}

	created, err := h.Admission.CompleteRegistration(ctx, identity, req.FullName, req.Phone)
	switch {
	case err == nil:
		// fall through
	case errors.Is(err, admission.ErrInvalidName), errors.Is(err, admission.ErrInvalidPhone):
		uierrors.Unprocessable(w, err.Error())
		return
	case errors.Is(err, participantstore.ErrDuplicateContact):
		uierrors.Conflict(w, "that phone number is already registered")
		return
	case errors.Is(err, participantstore.ErrDuplicateIdentity):
		uierrors.Conflict(w, "this Google account is already registered")
		return
	default:
		uierrors.ServerError(w, h.Log, "registration failed", err)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetIdentity(pending.GoogleID)
	}

	sess, err := h.SessionMgr.GetSession(r)
	if err == nil {
		err = h.SessionMgr.SignIn(w, r, sess, created.ID.Hex())
	}
	if err != nil {
		uierrors.ServerError(w, h.Log, "failed to save session", err)
		return
	}

	if err := h.Audit.CreateFrom(ctx, r, models.AuditRegistration, &created.ID, created.Email, "registration completed"); err != nil {
		h.Log.Warn("audit write failed", zap.Error(err))
	}

	uierrors.JSON(w, http.StatusCreated, registerResponse{
		ID:       created.ID.Hex(),
		FullName: created.FullName,
		Email:    created.Email,
		Phone:    created.Phone,
		Role:     created.Role,
	})
}
