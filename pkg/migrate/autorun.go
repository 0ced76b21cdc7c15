package migrate

import (
	"context"
	"fmt"

	"github.com/thedilution/dilution-backend/pkg/config"
	"github.com/thedilution/dilution-backend/pkg/db"
	"github.com/thedilution/dilution-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations at API boot. It only fires when the
// environment is dev AND the auto-migrate feature flag is on; staging and
// production always migrate through cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.Features.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"migrations_in": DefaultDir,
	})
	logg.Info(ctx, "auto-migrate: applying pending migrations")

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "auto-migrate: schema is current")
	return nil
}
