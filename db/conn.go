// Package db opens the relational store holding media records
package db

import (
	"errors"
	"fmt"

	"mizuki/media-api/internal/model"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New opens the configured database and migrates the media table.
// TranslateError is required: the allocator relies on constraint
// violations surfacing as gorm.ErrDuplicatedKey on every driver.
func New() (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver := viper.GetString("db.driver"); driver {
	case "sqlite":
		dialector = sqlite.Open(viper.GetString("db.dsn"))
	case "postgres":
		dialector = postgres.Open(viper.GetString("db.dsn"))
	default:
		return nil, errors.New("unknown database driver " + driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database, %w", err)
	}

	if err := db.AutoMigrate(&model.Media{}); err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
