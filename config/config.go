// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configDir = pflag.String("config", ".", "Directory containing config.toml")

	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers = []string{"sqlite", "postgres"}
)

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configDir)

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("storage.type", "storage_type")
	v.BindEnv("storage.local_root", "storage_local_root")

	v.BindEnv("aws.region", "aws_region")
	v.BindEnv("aws.endpoint", "aws_endpoint")
	v.BindEnv("aws.bucket", "aws_bucket")
	v.BindEnv("aws.access_key_id", "aws_access_key_id")
	v.BindEnv("aws.secret_access_key", "aws_secret_access_key")

	v.BindEnv("upload.max_size", "upload_max_size")
	v.BindEnv("upload.allow_webp", "upload_allow_webp")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_root", "media")

	// Max upload size in MiB, converted to bytes below
	v.SetDefault("upload.max_size", 20)
	v.SetDefault("upload.allow_webp", false)

	v.SetDefault("thumbnail.width", 320)
	v.SetDefault("thumbnail.height", 180)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDBDrivers, v.GetString("db.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("database dsn can't be empty")
	}

	switch v.GetString("storage.type") {
	case "s3":
		if v.GetString("aws.region") == "" && v.GetString("aws.endpoint") == "" {
			return errors.New("either a region or an endpoint must be set")
		}
		if v.GetString("aws.access_key_id") == "" {
			return errors.New("access key id can't be empty")
		}
		if v.GetString("aws.secret_access_key") == "" {
			return errors.New("secret access key can't be empty")
		}
		if v.GetString("aws.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
	case "local":
		if v.GetString("storage.local_root") == "" {
			return errors.New("local storage root can't be empty")
		}
	default:
		return errors.New("invalid storage type provided")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetInt("thumbnail.width") <= 0 || v.GetInt("thumbnail.height") <= 0 {
		return errors.New("thumbnail box must be bigger than 0 in both dimensions")
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)

	return nil
}
