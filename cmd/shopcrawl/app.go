package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hairizuanbinnoorazman/checkout-crawler/database"
	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
	"github.com/hairizuanbinnoorazman/checkout-crawler/run"
	"github.com/hairizuanbinnoorazman/checkout-crawler/storage"
	"github.com/hairizuanbinnoorazman/checkout-crawler/telemetry"
	"gorm.io/gorm"
)

// Files and directories below the --path root.
const (
	profileFile      = "user_data.json"
	agentConfigFile  = "agent_config.json"
	systemPromptFile = "system_prompt.txt"
	dataDir          = "data"
)

var rootPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&rootPath, "path", "", "folder with the config files where the data is saved")
}

// root returns the --path folder, defaulting to the working directory.
func root() string {
	if rootPath == "" {
		return "."
	}
	return rootPath
}

func newLogger(cfg LogConfig) *logger.LogrusLogger {
	return logger.New(logger.Options{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     os.Stderr,
		File:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	})
}

// openStorage opens the artifact store. Local storage is rooted at --path so
// that ledgers land in <path>/data next to the runtime's own output.
func openStorage(ctx context.Context, cfg StorageConfig) (storage.BlobStorage, error) {
	return storage.NewBlobStorage(ctx, storage.Config{
		Type:          cfg.Type,
		BaseDir:       root(),
		S3Bucket:      cfg.S3Bucket,
		S3Region:      cfg.S3Region,
		S3Prefix:      cfg.S3Prefix,
		PresignExpiry: cfg.S3PresignExpiry,
	})
}

func openAggregator(ctx context.Context, cfg *Config, log logger.Logger) (*telemetry.Aggregator, storage.BlobStorage, error) {
	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return telemetry.NewAggregator(store, dataDir, log), store, nil
}

func databaseConfig(cfg DatabaseConfig) database.Config {
	path := cfg.Path
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(root(), path)
	}
	return database.Config{
		Driver:       cfg.Driver,
		Path:         path,
		Host:         cfg.Host,
		Port:         cfg.Port,
		User:         cfg.User,
		Password:     cfg.Password,
		Database:     cfg.Database,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	}
}

// openHistory connects to the run database and applies pending migrations.
// The returned close function releases the connection.
func openHistory(ctx context.Context, cfg DatabaseConfig, log logger.Logger) (*run.SQLStore, func(), error) {
	dbCfg := databaseConfig(cfg)
	db, err := database.Connect(dbCfg)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() { closeGorm(db) }

	sqlDB, err := db.DB()
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := database.RunMigrations(sqlDB, dbCfg.Driver); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Debug(ctx, "run history connected", map[string]interface{}{
		"driver": dbCfg.Driver,
	})
	return run.NewSQLStore(db, log), closeDB, nil
}

func closeGorm(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
