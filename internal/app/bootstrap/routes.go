// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/giftmatch/internal/app/admission"
	assignmentsfeature "github.com/dalemusser/giftmatch/internal/app/features/assignments"
	authgooglefeature "github.com/dalemusser/giftmatch/internal/app/features/authgoogle"
	uierrors "github.com/dalemusser/giftmatch/internal/app/features/errors"
	friendfeature "github.com/dalemusser/giftmatch/internal/app/features/friend"
	healthfeature "github.com/dalemusser/giftmatch/internal/app/features/health"
	logoutfeature "github.com/dalemusser/giftmatch/internal/app/features/logout"
	registerfeature "github.com/dalemusser/giftmatch/internal/app/features/register"
	userinfofeature "github.com/dalemusser/giftmatch/internal/app/features/userinfo"
	"github.com/dalemusser/giftmatch/internal/app/pairing"
	auditstore "github.com/dalemusser/giftmatch/internal/app/store/audit"
	"github.com/dalemusser/giftmatch/internal/app/store/oauthstate"
	participantstore "github.com/dalemusser/giftmatch/internal/app/store/participants"
	"github.com/dalemusser/giftmatch/internal/app/system/auth"
	"github.com/dalemusser/giftmatch/internal/app/system/ratelimit"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// GiftMatch applies session middleware and mounts feature routers for the
// sign-in flow, registration, the friend view, and the organizer endpoints.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Stores and domain services.
	participants := participantstore.New(deps.MongoDatabase)
	states := oauthstate.New(deps.MongoDatabase)
	audit := auditstore.New(deps.MongoDatabase)

	ctrl := admission.New(participants, appCfg.AdminEmails, logger)
	engine := pairing.NewEngine(participants, audit, logger)
	logger.Info("admission configured", zap.Int("admin_allow_list", ctrl.AdminCount()))

	// Shared limiter for the sign-in and registration endpoints.
	authLimiter := ratelimit.NewAuthLimiter()

	// LoadSessionUser fetches fresh participant data on each request, so
	// role changes take effect immediately.
	sessionMgr.SetUserFetcher(&participantstore.Fetcher{Store: participants})

	r := chi.NewRouter()

	// Global auth middleware: loads the participant into context when the
	// session is authenticated.
	r.Use(sessionMgr.LoadSessionUser)

	// Unknown paths get the same JSON envelope the API handlers use.
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		uierrors.NotFound(w, "no such endpoint")
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Sign-in flow
	googleHandler := authgooglefeature.NewHandler(
		ctrl, sessionMgr, states, audit, authLimiter,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
		logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Registration
	registerHandler := registerfeature.NewHandler(ctrl, sessionMgr, audit, authLimiter, logger)
	r.Mount("/register", registerfeature.Routes(registerHandler))

	// Session identity
	userinfoHandler := userinfofeature.NewHandler()
	userinfofeature.MountRoutes(r, userinfoHandler)

	// Participant view of their assignment
	friendHandler := friendfeature.NewHandler(engine, logger)
	r.Route("/api/friend", func(pr chi.Router) {
		pr.Use(sessionMgr.RequireSignedIn)
		pr.Mount("/", friendfeature.Routes(friendHandler))
	})

	// Organizer endpoints
	assignmentsHandler := assignmentsfeature.NewHandler(engine, participants, audit, logger)
	r.Route("/api/admin", func(pr chi.Router) {
		pr.Use(sessionMgr.RequireRole("admin"))
		pr.Mount("/", assignmentsfeature.Routes(assignmentsHandler))
	})

	return r, nil
}
