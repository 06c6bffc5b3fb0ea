package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	uierrors "github.com/dalemusser/giftmatch/internal/app/features/errors"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"

	// A signed-in Google identity that has not completed registration yet.
	// Cleared once admission creates the participant record.
	pendingGoogleIDKey = "pending_google_id"
	pendingNameKey     = "pending_name"
	pendingEmailKey    = "pending_email"
)

// SessionUser is the per-request view of the signed-in participant. It is
// reloaded from the store on every request (via UserFetcher) so role changes
// and assignments take effect immediately.
type SessionUser struct {
	ID    string // participant ObjectID hex
	Name  string
	Email string
	Role  string // participant | admin
}

// PendingIdentity is a verified Google identity waiting on registration.
type PendingIdentity struct {
	GoogleID string
	Name     string
	Email    string
}

// UserFetcher loads fresh user data for a session's stored user id.
// Implementations return nil when the user no longer exists.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager wraps a gorilla cookie store with the session conventions
// this app uses: an authenticated participant id, or a pending identity
// captured during the OAuth callback.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	log     *zap.Logger
	fetcher UserFetcher
}

// NewSessionManager builds the cookie store. The `secure` flag controls
// Secure/SameSite; use false only for local dev over http.
func NewSessionManager(sessionKey, sessionName, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide 32+ random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: sessionName, log: logger}, nil
}

// SetUserFetcher wires the store-backed loader used by LoadSessionUser.
func (m *SessionManager) SetUserFetcher(f UserFetcher) { m.fetcher = f }

// Store exposes the underlying cookie store (logout needs its options).
func (m *SessionManager) Store() *sessions.CookieStore { return m.store }

// GetSession returns the request's session, creating one if absent.
func (m *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, m.name)
}

// SignIn marks the session authenticated for the given participant id and
// clears any pending identity.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, sess *sessions.Session, participantID string) error {
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = participantID
	delete(sess.Values, pendingGoogleIDKey)
	delete(sess.Values, pendingNameKey)
	delete(sess.Values, pendingEmailKey)
	return sess.Save(r, w)
}

// SetPendingIdentity stashes a verified identity that still needs to finish
// registration.
func (m *SessionManager) SetPendingIdentity(w http.ResponseWriter, r *http.Request, sess *sessions.Session, id PendingIdentity) error {
	sess.Values[isAuthKey] = false
	delete(sess.Values, userIDKey)
	sess.Values[pendingGoogleIDKey] = id.GoogleID
	sess.Values[pendingNameKey] = id.Name
	sess.Values[pendingEmailKey] = id.Email
	return sess.Save(r, w)
}

// PendingIdentity returns the stashed pre-registration identity, if any.
func (m *SessionManager) PendingIdentity(r *http.Request) (PendingIdentity, bool) {
	sess, err := m.GetSession(r)
	if err != nil {
		return PendingIdentity{}, false
	}
	gid := getString(sess, pendingGoogleIDKey)
	if gid == "" {
		return PendingIdentity{}, false
	}
	return PendingIdentity{
		GoogleID: gid,
		Name:     getString(sess, pendingNameKey),
		Email:    getString(sess, pendingEmailKey),
	}, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadSessionUser injects the current participant into the request context
// when the session is authenticated. The fetcher reloads the record on every
// request; a vanished record simply leaves the request anonymous.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.GetSession(r)
		if err != nil {
			// Bad or stale cookie: treat as anonymous.
			next.ServeHTTP(w, r)
			return
		}

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			if uid := getString(sess, userIDKey); uid != "" && m.fetcher != nil {
				if u := m.fetcher.FetchUser(r.Context(), uid); u != nil {
					r = withUser(r, u)
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects anonymous requests with 401.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			uierrors.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose participant lacks one of the allowed
// roles: 401 when anonymous, 403 when signed in with the wrong role.
func (m *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				uierrors.Unauthorized(w)
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				uierrors.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Context helpers                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in participant and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects a user directly into the request context, bypassing
// session middleware. Test use only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
