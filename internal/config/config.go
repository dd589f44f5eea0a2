package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	GiB = int64(1) << 30

	DefaultLargeFileThreshold = 10 * GiB
	DefaultMaxFileSize        = 15 * GiB
)

type Config struct {
	DB      DBConfig      `yaml:"db"`
	Storage StorageConfig `yaml:"storage"`
	MinIO   MinIOConfig   `yaml:"minio"`
	JWT     JWTConfig     `yaml:"jwt"`
	Server  ServerConfig  `yaml:"server"`
	Upload  UploadConfig  `yaml:"upload"`
	Payment PaymentConfig `yaml:"payment"`
	Sweep   SweepConfig   `yaml:"sweep"`
}

type DBConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver     string `yaml:"driver"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SSLMode    string `yaml:"sslmode"`
	SQLitePath string `yaml:"sqlite_path"`
}

type StorageConfig struct {
	// Driver is "local" or "minio".
	Driver    string `yaml:"driver"`
	UploadDir string `yaml:"upload_dir"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type JWTConfig struct {
	Secret          string `yaml:"secret"`
	ExpirationHours int    `yaml:"expiration_hours"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type UploadConfig struct {
	LargeFileThreshold int64 `yaml:"large_file_threshold"`
	MaxFileSize        int64 `yaml:"max_file_size"`
}

type PaymentConfig struct {
	SessionTTL  time.Duration `yaml:"session_ttl"`
	MaxSessions int           `yaml:"max_sessions"`
	GatewayURL  string        `yaml:"gateway_url"`
}

type SweepConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Schedule string        `yaml:"schedule"`
	MinAge   time.Duration `yaml:"min_age"`
}

func defaults() *Config {
	return &Config{
		DB: DBConfig{
			Driver:     "postgres",
			Host:       "localhost",
			Port:       "5432",
			User:       "assetshare",
			Password:   "assetshare_secret",
			Name:       "assetshare",
			SSLMode:    "disable",
			SQLitePath: "assetshare.db",
		},
		Storage: StorageConfig{
			Driver:    "local",
			UploadDir: "uploads",
		},
		MinIO: MinIOConfig{
			Endpoint:  "localhost:9000",
			AccessKey: "assetshare",
			SecretKey: "assetshare_secret",
			Bucket:    "assetshare",
		},
		JWT: JWTConfig{
			Secret:          "change-me-in-production",
			ExpirationHours: 30 * 24,
		},
		Server: ServerConfig{
			Port:        "5000",
			CORSOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
		Upload: UploadConfig{
			LargeFileThreshold: DefaultLargeFileThreshold,
			MaxFileSize:        DefaultMaxFileSize,
		},
		Payment: PaymentConfig{
			SessionTTL:  30 * time.Minute,
			MaxSessions: 10000,
			GatewayURL:  "https://mockpaymentgateway.com/pay/",
		},
		Sweep: SweepConfig{
			Enabled:  true,
			Schedule: "@hourly",
			MinAge:   time.Hour,
		},
	}
}

// Load reads the optional YAML file at path, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DB.Driver = getEnv("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.Host = getEnv("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = getEnv("DB_PORT", cfg.DB.Port)
	cfg.DB.User = getEnv("DB_USER", cfg.DB.User)
	cfg.DB.Password = getEnv("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = getEnv("DB_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.SQLitePath = getEnv("DB_SQLITE_PATH", cfg.DB.SQLitePath)

	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.UploadDir = getEnv("UPLOAD_DIR", cfg.Storage.UploadDir)

	cfg.MinIO.Endpoint = getEnv("MINIO_ENDPOINT", cfg.MinIO.Endpoint)
	cfg.MinIO.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.MinIO.AccessKey)
	cfg.MinIO.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.MinIO.SecretKey)
	cfg.MinIO.Bucket = getEnv("MINIO_BUCKET", cfg.MinIO.Bucket)
	cfg.MinIO.Region = getEnv("MINIO_REGION", cfg.MinIO.Region)
	cfg.MinIO.UseSSL = getEnvAsBool("MINIO_USE_SSL", cfg.MinIO.UseSSL)

	cfg.JWT.Secret = getEnv("JWT_SECRET", cfg.JWT.Secret)
	cfg.JWT.ExpirationHours = getEnvAsInt("JWT_EXPIRATION_HOURS", cfg.JWT.ExpirationHours)

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		cfg.Server.CORSOrigins = splitList(origins)
	}

	cfg.Upload.LargeFileThreshold = getEnvAsInt64("UPLOAD_LARGE_FILE_THRESHOLD", cfg.Upload.LargeFileThreshold)
	cfg.Upload.MaxFileSize = getEnvAsInt64("UPLOAD_MAX_FILE_SIZE", cfg.Upload.MaxFileSize)

	cfg.Payment.SessionTTL = getEnvAsDuration("PAYMENT_SESSION_TTL", cfg.Payment.SessionTTL)
	cfg.Payment.MaxSessions = getEnvAsInt("PAYMENT_MAX_SESSIONS", cfg.Payment.MaxSessions)
	cfg.Payment.GatewayURL = getEnv("PAYMENT_GATEWAY_URL", cfg.Payment.GatewayURL)

	cfg.Sweep.Enabled = getEnvAsBool("SWEEP_ENABLED", cfg.Sweep.Enabled)
	cfg.Sweep.Schedule = getEnv("SWEEP_SCHEDULE", cfg.Sweep.Schedule)
	cfg.Sweep.MinAge = getEnvAsDuration("SWEEP_MIN_AGE", cfg.Sweep.MinAge)
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	switch c.Storage.Driver {
	case "local", "minio":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Upload.LargeFileThreshold <= 0 || c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload size limits must be positive")
	}
	if c.Upload.LargeFileThreshold > c.Upload.MaxFileSize {
		return fmt.Errorf("large file threshold (%d) exceeds max file size (%d)", c.Upload.LargeFileThreshold, c.Upload.MaxFileSize)
	}
	return nil
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
