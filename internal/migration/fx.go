package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/AndreaSpaggiari/sito-andrea/internal/config"
	"github.com/AndreaSpaggiari/sito-andrea/internal/seed"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		if err := RunMigrations(sqlDB); err != nil {
			return err
		}

		if err := seed.EnsureCatalog(conn); err != nil {
			return err
		}
		if cfg.Bootstrap.EnsureAdminUser {
			return seed.EnsureAdmin(conn, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
		}
		return nil
	}),
)
