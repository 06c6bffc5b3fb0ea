// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dalemusser/giftmatch/internal/app/admission"
	uierrors "github.com/dalemusser/giftmatch/internal/app/features/errors"
	auditstore "github.com/dalemusser/giftmatch/internal/app/store/audit"
	"github.com/dalemusser/giftmatch/internal/app/store/oauthstate"
	"github.com/dalemusser/giftmatch/internal/app/system/auth"
	"github.com/dalemusser/giftmatch/internal/app/system/ratelimit"
	"github.com/dalemusser/giftmatch/internal/app/system/timeouts"
	"github.com/dalemusser/giftmatch/internal/domain/models"
)

// Handler handles Google OAuth sign-in.
type Handler struct {
	Admission  *admission.Controller
	SessionMgr *auth.SessionManager
	States     *oauthstate.Store
	Audit      *auditstore.Store
	Limiter    *ratelimit.AuthLimiter
	Log        *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://giftmatch.example.com/auth/google/callback"
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	ctrl *admission.Controller,
	sessionMgr *auth.SessionManager,
	states *oauthstate.Store,
	audit *auditstore.Store,
	limiter *ratelimit.AuthLimiter,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Admission:    ctrl,
		SessionMgr:   sessionMgr,
		States:       states,
		Audit:        audit,
		Limiter:      limiter,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		uierrors.Error(w, http.StatusServiceUnavailable, "sign-in is not configured")
		return
	}

	if h.Limiter != nil {
		if allowed, reason := h.Limiter.Check(r, ""); !allowed {
			uierrors.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	state, err := generateState()
	if err != nil {
		uierrors.ServerError(w, h.Log, "failed to generate OAuth state", err)
		return
	}

	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(10 * time.Minute)
	if err := h.States.Save(ctx, state, returnURL, expiresAt); err != nil {
		uierrors.ServerError(w, h.Log, "failed to save OAuth state", err)
		return
	}

	url := h.oauth2Config().AuthCodeURL(state)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("return_url", returnURL))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, fetches the Google profile, and either signs the         |
| participant in or parks the identity pending registration.                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		uierrors.BadRequest(w, "sign-in was cancelled or refused")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		uierrors.BadRequest(w, "invalid sign-in attempt")
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.States.Validate(ctxTimeout, state)
	if err != nil {
		uierrors.ServerError(w, h.Log, "failed to validate OAuth state", err)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		uierrors.BadRequest(w, "sign-in attempt expired; start again")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		uierrors.BadRequest(w, "invalid sign-in attempt")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		uierrors.ServerError(w, h.Log, "failed to exchange OAuth code", err)
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		uierrors.ServerError(w, h.Log, "failed to fetch Google user info", err)
		return
	}
	if !googleUser.EmailVerified {
		h.Log.Warn("Google account email not verified",
			zap.String("google_id", googleUser.ID))
		uierrors.Error(w, http.StatusForbidden, "Google account email is not verified")
		return
	}

	identity := admission.Identity{
		ProviderID: googleUser.ID,
		Name:       googleUser.Name,
		Email:      googleUser.Email,
	}

	status, participant, err := h.Admission.BeginSession(ctxTimeout, identity)
	if err != nil {
		uierrors.ServerError(w, h.Log, "failed to resolve identity", err)
		return
	}

	sess := h.freshSession(r, googleUser.ID)

	if status == admission.StatusNeedsRegistration {
		if err := h.SessionMgr.SetPendingIdentity(w, r, sess, auth.PendingIdentity{
			GoogleID: identity.ProviderID,
			Name:     identity.Name,
			Email:    identity.Email,
		}); err != nil {
			uierrors.ServerError(w, h.Log, "failed to save session", err)
			return
		}
		h.Log.Info("identity verified, registration required",
			zap.String("google_id", identity.ProviderID))
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, sess, participant.ID.Hex()); err != nil {
		uierrors.ServerError(w, h.Log, "failed to save session", err)
		return
	}

	if err := h.Audit.CreateFrom(ctxTimeout, r, models.AuditSignIn, &participant.ID, participant.Email, "google sign-in"); err != nil {
		h.Log.Warn("audit write failed", zap.Error(err))
	}

	h.Log.Info("participant signed in",
		zap.String("participant_id", participant.ID.Hex()))

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/api/me"), http.StatusSeeOther)
}

// freshSession returns the request's session, falling back to a new one when
// the cookie fails to decode.
func (h *Handler) freshSession(r *http.Request, googleID string) *sessions.Session {
	sess, err := h.SessionMgr.GetSession(r)
	if err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			h.Log.Warn("session cookie invalid, using fresh session",
				zap.Error(err),
				zap.String("google_id", googleID))
		} else {
			h.Log.Error("session store error during sign-in, using fresh session",
				zap.Error(err),
				zap.String("google_id", googleID))
		}
	}
	return sess
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &info, nil
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
