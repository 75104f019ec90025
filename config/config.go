package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/upb/tenant-access-gate/models"
)

// Staff webhook modes
const (
	StaffModeInviteOnly = "invite_only"
	StaffModeBootstrap  = "bootstrap"
)

// Route gate cross-role policies
const (
	CrossRoleConditional   = "conditional"
	CrossRoleUnconditional = "unconditional"
)

// Config represents the complete application configuration.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Clerk         ClerkConfig
	Tenant        TenantConfig
	Sync          SyncConfig
	Gate          GateConfig
	Redis         RedisConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string // empty disables cross-origin access
	TLS             struct {
		Enabled  bool
		CertFile string
		KeyFile  string
	}
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
// Password doubles as the service credential and is injected into ConnectionString when
// the URL carries none.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	AutoMigrate      bool
}

// ClerkConfig holds identity provider configuration
type ClerkConfig struct {
	Issuer               string   // Frontend API URL, e.g. https://clerk.example.com
	JWKSURL              string   // Defaults to Issuer + /.well-known/jwks.json
	AuthorizedParties    []string // Accepted azp values; empty accepts any
	MetadataClaim        string   // Session claim carrying public metadata
	SignInURL            string   // Hosted sign-in page; empty serves the local placeholder
	StaffWebhookSecret   string
	StudentWebhookSecret string
	JWKSRefreshInterval  time.Duration
}

// TenantConfig holds the default tenant coordinates
type TenantConfig struct {
	DefaultID   uuid.UUID // uuid.Nil when unset
	DefaultName string
}

// SyncConfig controls webhook synchronization behavior
type SyncConfig struct {
	StaffMode        string
	DefaultStaffRole models.Role
}

// GateConfig controls the route gate
type GateConfig struct {
	CrossRolePolicy string
	// TrustForwardedHeaders lets X-Forwarded-Proto and X-Forwarded-Host shape the
	// sign-in return URL. Enable only behind a proxy that overwrites them.
	TrustForwardedHeaders bool
}

// RedisConfig holds the optional delivery ledger connection
type RedisConfig struct {
	URL       string
	KeyPrefix string
	TTL       time.Duration
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	LogFile        string // optional rotating file sink
	LogMaxSizeMB   int
	LogMaxBackups  int
	LogMaxAgeDays  int
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	defaultTenantID, err := getEnvAsUUID("DEFAULT_TENANT_ID")
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	staffRole, err := models.ParseRole(getEnv("DEFAULT_STAFF_ROLE", string(models.RoleSuperAdmin)))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: DEFAULT_STAFF_ROLE: %w", err)
	}

	issuer := strings.TrimSuffix(getEnv("CLERK_ISSUER", ""), "/")
	jwksURL := getEnv("CLERK_JWKS_URL", "")
	if jwksURL == "" && issuer != "" {
		jwksURL = issuer + "/.well-known/jwks.json"
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
			TLS: struct {
				Enabled  bool
				CertFile string
				KeyFile  string
			}{
				Enabled:  getEnvAsBool("TLS_ENABLED", false),
				CertFile: getEnv("TLS_CERT_FILE", "certs/cert.pem"),
				KeyFile:  getEnv("TLS_KEY_FILE", "certs/key.pem"),
			},
		},
		Database: loadDatabaseConfig(),
		Clerk: ClerkConfig{
			Issuer:               issuer,
			JWKSURL:              jwksURL,
			AuthorizedParties:    getEnvAsList("CLERK_AUTHORIZED_PARTIES", nil),
			MetadataClaim:        getEnv("CLERK_METADATA_CLAIM", "metadata"),
			SignInURL:            getEnv("CLERK_SIGN_IN_URL", ""),
			StaffWebhookSecret:   getEnv("CLERK_STAFF_WEBHOOK_SECRET", ""),
			StudentWebhookSecret: getEnv("CLERK_STUDENT_WEBHOOK_SECRET", ""),
			JWKSRefreshInterval:  getEnvAsDuration("CLERK_JWKS_REFRESH_INTERVAL", time.Hour),
		},
		Tenant: TenantConfig{
			DefaultID:   defaultTenantID,
			DefaultName: getEnv("DEFAULT_TENANT_NAME", "default"),
		},
		Sync: SyncConfig{
			StaffMode:        getEnv("STAFF_WEBHOOK_MODE", StaffModeInviteOnly),
			DefaultStaffRole: staffRole,
		},
		Gate: GateConfig{
			CrossRolePolicy:       getEnv("GATE_CROSS_ROLE_POLICY", CrossRoleConditional),
			TrustForwardedHeaders: getEnvAsBool("GATE_TRUST_FORWARDED_HEADERS", false),
		},
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", ""),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "access-gate:webhook:"),
			TTL:       getEnvAsDuration("REDIS_DELIVERY_TTL", 24*time.Hour),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			LogFile:        getEnv("LOG_FILE", ""),
			LogMaxSizeMB:   getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			LogMaxBackups:  getEnvAsInt("LOG_MAX_BACKUPS", 5),
			LogMaxAgeDays:  getEnvAsInt("LOG_MAX_AGE_DAYS", 30),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (DATABASE_URL or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	switch c.Sync.StaffMode {
	case StaffModeInviteOnly, StaffModeBootstrap:
	default:
		return fmt.Errorf("unknown staff webhook mode %q", c.Sync.StaffMode)
	}
	if !c.Sync.DefaultStaffRole.Valid() {
		return fmt.Errorf("default staff role %q is not a known role", c.Sync.DefaultStaffRole)
	}

	switch c.Gate.CrossRolePolicy {
	case CrossRoleConditional, CrossRoleUnconditional:
	default:
		return fmt.Errorf("unknown cross-role policy %q", c.Gate.CrossRolePolicy)
	}

	if c.Tenant.DefaultName == "" {
		return fmt.Errorf("default tenant name is required")
	}

	// Identity provider validation (required in production)
	if c.IsProduction() {
		if c.Clerk.Issuer == "" {
			return fmt.Errorf("clerk issuer is required in production")
		}
		if c.Clerk.StaffWebhookSecret == "" || c.Clerk.StudentWebhookSecret == "" {
			return fmt.Errorf("staff and student webhook secrets are required in production")
		}
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		if c.Password == "" {
			return c.ConnectionString
		}
		u, err := url.Parse(c.ConnectionString)
		if err != nil || u.User == nil {
			return c.ConnectionString
		}
		if _, hasPassword := u.User.Password(); hasPassword {
			return c.ConnectionString
		}
		u.User = url.UserPassword(u.User.Username(), c.Password)
		return u.String()
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	autoMigrate := getEnvAsBool("DB_AUTO_MIGRATE", true)
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			Password:         getEnv("DB_PASSWORD", ""),
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			AutoMigrate:      autoMigrate,
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", "postgres"),
		Database:        getEnv("DB_NAME", "registry"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		AutoMigrate:     autoMigrate,
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated value, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsUUID returns uuid.Nil when the variable is unset and an error when it is malformed
func getEnvAsUUID(key string) (uuid.UUID, error) {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(valueStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a UUID: %w", key, err)
	}
	return id, nil
}
