// Command seed wipes the Postgres tables and loads the demo dataset.
package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"toilet_finder/internal/config"
	"toilet_finder/internal/models"
	"toilet_finder/internal/services"
	"toilet_finder/internal/store"
)

func main() {
	cfg := config.Load()
	logrus.SetOutput(os.Stdout)

	db, err := config.InitDB(cfg.DB)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	gs := store.NewGormStore(db)
	if err := gs.Migrate(); err != nil {
		logrus.WithError(err).Fatal("Auto-migration failed")
	}

	// Clear old data
	for _, model := range []interface{}{&models.Review{}, &models.Toilet{}, &models.User{}} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			logrus.WithError(err).Fatal("Failed to clear tables")
		}
	}
	logrus.Info("Old data cleared")

	err = gs.Transaction(context.Background(), func(tx store.Store) error {
		return services.SeedDemoData(context.Background(), tx)
	})
	if err != nil {
		logrus.WithError(err).Fatal("Seed failed")
	}
	logrus.Info("Seed complete")
}
