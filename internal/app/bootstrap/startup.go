// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	participantstore "github.com/dalemusser/giftmatch/internal/app/store/participants"
	"github.com/dalemusser/giftmatch/internal/app/system/normalize"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// GiftMatch promotes already-registered participants whose email landed on
// the admin allow-list since they signed up.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := ensureAdmins(ctx, deps, appCfg.AdminEmails, logger); err != nil {
		return err
	}

	if n, err := participantstore.New(deps.MongoDatabase).Count(ctx); err == nil {
		logger.Info("participant pool loaded", zap.Int64("registered", n))
	} else {
		logger.Warn("participant count failed", zap.Error(err))
	}
	return nil
}

// ensureAdmins sets role=admin on existing participants matching the
// allow-list. Addresses with no participant record yet are handled at
// registration time instead.
func ensureAdmins(ctx context.Context, deps DBDeps, adminEmails []string, logger *zap.Logger) error {
	if len(adminEmails) == 0 {
		return nil
	}

	emails := make([]string, 0, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalize.Email(e); e != "" {
			emails = append(emails, e)
		}
	}

	res, err := deps.MongoDatabase.Collection("participants").UpdateMany(ctx,
		bson.M{"email": bson.M{"$in": emails}, "role": bson.M{"$ne": "admin"}},
		bson.M{"$set": bson.M{"role": "admin", "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount > 0 {
		logger.Info("promoted participants to admin",
			zap.Int64("count", res.ModifiedCount))
	}
	return nil
}
