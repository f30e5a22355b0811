package db

import (
	"os"
	"path/filepath"

	"github.com/habedi/cardidle/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Db   *gorm.DB
	Path = filepath.Join(config.Dir(), "cardidle.db")
)

// InitDB opens the database at Path and migrates the tables.
func InitDB() error {
	if err := createDBDirectory(); err != nil {
		return err
	}
	if err := openDatabase(); err != nil {
		return err
	}
	if err := migrateTables(Db); err != nil {
		return err
	}
	configureLogger()

	log.Debug().Str("path", Path).Msg("Database initialized")
	return nil
}

// GetDB returns the global handle opened by InitDB.
func GetDB() *gorm.DB { return Db }

func createDBDirectory() error {
	dir := filepath.Dir(Path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error().Err(err).Msg("Failed to create database directory")
			return err
		}
	}
	return nil
}

func openDatabase() error {
	var err error
	Db, err = gorm.Open(sqlite.Open(Path), &gorm.Config{})
	if err != nil {
		log.Error().Err(err).Msg("Failed to open database")
		return err
	}
	return nil
}

// Migrate creates or updates the tables on db.
func Migrate(db *gorm.DB) error { return migrateTables(db) }

func migrateTables(db *gorm.DB) error {
	if err := db.AutoMigrate(&Session{}, &Title{}, &Statistics{}); err != nil {
		log.Error().Err(err).Msg("Failed to auto-migrate database")
		return err
	}
	return nil
}

// configureLogger silences gorm unless debug logging is on.
func configureLogger() {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		Db.Logger = Db.Logger.LogMode(logger.Info)
	} else {
		Db.Logger = Db.Logger.LogMode(logger.Silent)
	}
}

// CloseDB closes the global handle.
func CloseDB() error {
	if Db == nil {
		return nil
	}
	sqlDB, err := Db.DB()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get raw database connection")
		return err
	}
	return sqlDB.Close()
}
