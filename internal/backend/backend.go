// Package backend builds the snapshot persister selected by STORE_BACKEND.
package backend

import (
	"context"
	"fmt"

	"finanzas/internal/config"
	applog "finanzas/internal/log"
	"finanzas/internal/storage"
	"finanzas/internal/store"
)

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = config.BackendFile
	SQLiteBackend BackendType = config.BackendSQLite
	RedisBackend  BackendType = config.BackendRedis
	MemoryBackend BackendType = config.BackendMemory
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, RedisBackend, MemoryBackend:
		return true
	}
	return false
}

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the persister and its cleanup function.
type BackendResult struct {
	Type      BackendType
	Persister store.Persister
	Cleanup   CleanupFunc
}

// Config holds what backend creation needs from the application config.
type Config struct {
	Type          BackendType
	DataDir       string
	SQLiteDBPath  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	bt := BackendType(appConfig.StoreBackend)
	if !bt.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.StoreBackend)
	}
	return Config{
		Type:          bt,
		DataDir:       appConfig.DataDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
	}, nil
}

// Factory creates persisters from backend config.
type Factory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) *Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Factory{logger: logger.WithComponent(applog.ComponentBackend)}
}

func (f *Factory) Create(ctx context.Context, cfg Config) (*BackendResult, error) {
	var (
		p interface {
			store.Persister
			Close() error
		}
		err error
	)
	switch cfg.Type {
	case FileBackend:
		p, err = storage.NewFile(cfg.DataDir)
	case SQLiteBackend:
		var db *storage.SQLiteSnapshots
		if db, err = storage.NewSQLiteSnapshots(cfg.SQLiteDBPath); err == nil {
			p = db.WithLogger(f.logger)
		}
	case RedisBackend:
		p, err = storage.NewRedisSnapshots(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case MemoryBackend:
		p = storage.NewMemory()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", cfg.Type, err)
	}

	f.logger.InfoContext(ctx, "Initialized snapshot backend",
		applog.FieldBackend, cfg.Type.String(),
		"data_dir", cfg.DataDir,
		"db_path", cfg.SQLiteDBPath,
		"redis_addr", cfg.RedisAddr)

	return &BackendResult{Type: cfg.Type, Persister: p, Cleanup: p.Close}, nil
}
