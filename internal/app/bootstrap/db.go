// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/giftmatch/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// EnsureSchema creates the indexes the stores rely on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.Ensure(ctx, deps.MongoDatabase); err != nil {
		return err
	}
	logger.Info("indexes ensured")
	return nil
}
