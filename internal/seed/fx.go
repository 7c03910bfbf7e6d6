package seed

import (
	"github.com/smallbiznis/rastro/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if !cfg.SeedDemoData {
			return nil
		}
		if err := EnsureDemoData(conn); err != nil {
			return err
		}
		log.Info("demo data seeded")
		return nil
	}),
)
