package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ktakita1011/MiniKaggle/internal/config"
	"github.com/ktakita1011/MiniKaggle/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Main holds users, teams and the append-only submission history. Final holds
// the current final-submission snapshot. The split mirrors the two persisted
// stores the competition operates over.
var (
	Main  *gorm.DB
	Final *gorm.DB
)

func Connect(cfg *config.Config) error {
	var err error
	Main, err = open(cfg, cfg.DBPath, cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to main database: %w", err)
	}
	Final, err = open(cfg, cfg.FinalDBPath, cfg.FinalDSN())
	if err != nil {
		return fmt.Errorf("failed to connect to final-submission database: %w", err)
	}

	slog.Info("databases connected", "driver", cfg.DBDriver)
	return nil
}

func open(cfg *config.Config, sqlitePath, dsn string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	var db *gorm.DB
	var err error
	switch cfg.DBDriver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(sqlitePath), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		// Single writer: makes quota-check + insert serialize per store.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	return db, nil
}

// MigrateMain runs AutoMigrate for the main-store models.
func MigrateMain() error {
	return Main.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Submission{},
		&models.RefreshToken{},
		&models.SystemLog{},
	)
}

// MigrateFinal runs AutoMigrate for the final-submission store.
func MigrateFinal() error {
	return Final.AutoMigrate(&models.FinalSubmission{})
}

func Ping() error {
	for _, db := range []*gorm.DB{Main, Final} {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.Ping(); err != nil {
			return err
		}
	}
	return nil
}
