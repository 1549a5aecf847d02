package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL    string `toml:"redis_url"`
		TokenHeader string `toml:"token_header"`
		SessionTTL  string `toml:"session_ttl"`
		// moderator endpoints compare this header against ModeratorToken
		ModeratorHeader string `toml:"moderator_header"`
		ModeratorToken  string `toml:"moderator_token"`

		sessionTTL time.Duration
	} `toml:"auth"`

	API struct {
		UserIDHeader    string         `toml:"user_id_header"`
		RequiredHeaders []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Database struct {
		DSN string `toml:"dsn"`
	} `toml:"database"`

	Storage StorageConfig `toml:"storage"`

	Upload struct {
		MaxBytes int64 `toml:"max_bytes"`
	} `toml:"upload"`

	Import struct {
		AudioDir     string   `toml:"audio_dir"`
		ChapterFiles []string `toml:"chapter_files"`
		ReportPath   string   `toml:"report_path"`
		SkipMarkers  []string `toml:"skip_markers"`
	} `toml:"import"`

	Bot struct {
		Token    string  `toml:"token"`
		AdminIDs []int64 `toml:"admin_ids"`
	} `toml:"bot"`

	Export struct {
		CredentialsPath string `toml:"credentials_path"`
		SheetID         string `toml:"sheet_id"`
		SheetName       string `toml:"sheet_name"`
		StartCell       string `toml:"start_cell"`
		StampCell       string `toml:"stamp_cell"`
		Status          string `toml:"status"`
		// Schedule is a cron line in UTC; empty runs the export once.
		Schedule        string `toml:"schedule"`
	} `toml:"export"`
}

type StorageConfig struct {
	Backend           string `toml:"backend"`
	ReferencePrefix   string `toml:"reference_prefix"`
	SubmissionsPrefix string `toml:"submissions_prefix"`

	Local struct {
		Root    string `toml:"root"`
		BaseURL string `toml:"base_url"`
	} `toml:"local"`

	Memory struct {
		BaseURL string `toml:"base_url"`
	} `toml:"memory"`

	Supabase struct {
		URL    string `toml:"url"`
		Key    string `toml:"key"`
		Bucket string `toml:"bucket"`
	} `toml:"supabase"`

	OSS struct {
		Endpoint        string `toml:"endpoint"`
		AccessKeyID     string `toml:"access_key_id"`
		AccessKeySecret string `toml:"access_key_secret"`
		Bucket          string `toml:"bucket"`
		PublicBase      string `toml:"public_base"`
	} `toml:"oss"`

	FTP struct {
		Addr     string `toml:"addr"`
		User     string `toml:"user"`
		Password string `toml:"password"`
		BaseURL  string `toml:"base_url"`
	} `toml:"ftp"`
}

const defaultMaxUploadBytes = 20 << 20

func (c *Config) SessionTTL() time.Duration {
	return c.Auth.sessionTTL
}

// LoadConfig reads a TOML config. ${VAR} references are expanded from the
// environment, after loading a .env file next to the config if one exists.
func LoadConfig(path string) (*Config, error) {
	dotEnv := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(dotEnv); err == nil {
		if err := godotenv.Load(dotEnv); err != nil {
			return nil, fmt.Errorf("error loading %s: %w", dotEnv, err)
		}
		logger.Debug.Printf("Loaded environment from %s", dotEnv)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return ParseConfig(os.ExpandEnv(string(data)))
}

func ParseConfig(data string) (*Config, error) {
	var config Config
	if err := toml.Unmarshal([]byte(data), &config); err != nil {
		return nil, fmt.Errorf("error parsing config\n> Error: %w", err)
	}

	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	logger.Debug.Printf("Loaded storage config: backend=%s reference=%s submissions=%s",
		config.Storage.Backend,
		config.Storage.ReferencePrefix,
		config.Storage.SubmissionsPrefix,
	)

	return &config, nil
}

func (c *Config) applyDefaults() error {
	if c.Auth.TokenHeader == "" {
		c.Auth.TokenHeader = "Authorization"
	}
	if c.Auth.ModeratorHeader == "" {
		c.Auth.ModeratorHeader = "X-Moderator-Token"
	}
	if c.API.UserIDHeader == "" {
		c.API.UserIDHeader = "X-User-Id"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.Storage.ReferencePrefix == "" {
		c.Storage.ReferencePrefix = "gita-guru/audio"
	}
	if c.Storage.SubmissionsPrefix == "" {
		c.Storage.SubmissionsPrefix = "gita-guru/submissions"
	}
	if c.Storage.Supabase.Bucket == "" {
		c.Storage.Supabase.Bucket = "public"
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = defaultMaxUploadBytes
	}
	if c.Import.ReportPath == "" {
		c.Import.ReportPath = "upload_results.json"
	}
	if c.Export.StartCell == "" {
		c.Export.StartCell = "A1"
	}

	c.Auth.sessionTTL = 7 * 24 * time.Hour
	if c.Auth.SessionTTL != "" {
		ttl, err := time.ParseDuration(c.Auth.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid auth.session_ttl %q: %w", c.Auth.SessionTTL, err)
		}
		c.Auth.sessionTTL = ttl
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Server.EnableAuth && c.Auth.RedisURL == "" {
		return fmt.Errorf("auth.redis_url is required when server.enable_auth is set")
	}

	switch strings.ToLower(c.Storage.Backend) {
	case "memory", "local", "supabase", "oss", "ftp":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}
