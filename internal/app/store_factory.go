package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/gitaguru/internal/auth"
	"github.com/shrimpsizemoose/gitaguru/internal/blob"
	"github.com/shrimpsizemoose/gitaguru/internal/store"
	"github.com/shrimpsizemoose/gitaguru/internal/store/postgres"
	"github.com/shrimpsizemoose/gitaguru/internal/store/sqlite"
)

func NewStore(dsn string) (store.Store, error) {
	dbType := store.DBTypeSQLite
	if strings.HasPrefix(dsn, "postgres") {
		dbType = store.DBTypePostgres
	}

	switch dbType {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dsn)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(dsn)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}

func NewBlobStore(cfg StorageConfig) (blob.Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory":
		return blob.NewMemory(cfg.Memory.BaseURL), nil
	case "local":
		return blob.NewLocal(cfg.Local.Root, cfg.Local.BaseURL)
	case "supabase":
		if cfg.Supabase.URL == "" || cfg.Supabase.Key == "" {
			return nil, fmt.Errorf("storage.supabase needs url and key")
		}
		return blob.NewSupabase(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Bucket), nil
	case "oss":
		return blob.NewOSS(
			cfg.OSS.Endpoint,
			cfg.OSS.AccessKeyID,
			cfg.OSS.AccessKeySecret,
			cfg.OSS.Bucket,
			cfg.OSS.PublicBase,
		)
	case "ftp":
		return blob.NewFTP(cfg.FTP.Addr, cfg.FTP.User, cfg.FTP.Password, cfg.FTP.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func NewAuthProvider(ctx context.Context, cfg *Config) (auth.Provider, error) {
	if !cfg.Server.EnableAuth {
		return auth.Disabled{}, nil
	}
	return auth.Connect(ctx, cfg.Auth.RedisURL, cfg.SessionTTL())
}
