package database

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"loomchat/internal/config"
	"loomchat/internal/models"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	slog.Info("Database connected", "host", cfg.DBHost, "db", cfg.DBName)
	return nil
}

func Migrate() error {
	return MigrateWith(DB)
}

// MigrateWith runs auto-migration on the given connection. Tests use this
// with an in-memory database.
func MigrateWith(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.InferenceProvider{},
		&models.InferenceProviderCredential{},
		&models.InferenceSource{},
		&models.UserProviderSetting{},
		&models.Thread{},
		&models.UserMessage{},
		&models.InferenceMessage{},
	)
}
