package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Worker    WorkerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Email     EmailConfig
	Calendar  CalendarConfig
	Log       LogConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Name    string `env:"APP_NAME, default=Task Manager"`
	Version string `env:"VERSION, default=0.1.0"`
}

type ServerConfig struct {
	Host            string        `env:"HOST, default=localhost"`
	Port            string        `env:"PORT, default=8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT, default=30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT, default=30s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT, default=60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
	Environment     string        `env:"ENVIRONMENT, default=development"`
}

type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER, default=postgres"`
	URL             string        `env:"DATABASE_URL"`
	Host            string        `env:"DB_HOST, default=localhost"`
	Port            string        `env:"DB_PORT, default=5432"`
	User            string        `env:"DB_USER, default=postgres"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME, default=task_manager"`
	SSLMode         string        `env:"DB_SSL_MODE, default=disable"`
	SQLitePath      string        `env:"DB_SQLITE_PATH, default=task_manager.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS, default=25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS, default=10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME, default=30m"`
}

type RedisConfig struct {
	Host         string        `env:"REDIS_HOST, default=localhost"`
	Port         string        `env:"REDIS_PORT, default=6379"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB, default=0"`
	PoolSize     int           `env:"REDIS_POOL_SIZE, default=10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS, default=5"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES, default=3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT, default=5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT, default=3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT, default=3s"`
	TaskCacheTTL time.Duration `env:"REDIS_TASK_CACHE_TTL, default=30m"`
}

type WorkerConfig struct {
	Concurrency  int           `env:"WORKER_CONCURRENCY, default=4"`
	PollInterval time.Duration `env:"WORKER_POLL_INTERVAL, default=5s"`
	MaxTries     int           `env:"WORKER_MAX_TRIES, default=3"`
	Queues       []string      `env:"WORKER_QUEUES, default=notifications"`
	BaseBackoff  time.Duration `env:"WORKER_BASE_BACKOFF, default=1m"`
	JobTimeout   time.Duration `env:"WORKER_JOB_TIMEOUT, default=30s"`
}

type AuthConfig struct {
	PrivateKeyPath string        `env:"AUTH_JWT_PRIVATE_KEY_PATH, default=certs/jwt-private.pem"`
	PublicKeyPath  string        `env:"AUTH_JWT_PUBLIC_KEY_PATH, default=certs/jwt-public.pem"`
	Algorithm      string        `env:"AUTH_JWT_ALGORITHM, default=RS256"`
	AccessTokenTTL time.Duration `env:"AUTH_JWT_ACCESS_TOKEN_EXPIRE, default=15m"`
	BCryptCost     int           `env:"BCRYPT_COST, default=10"`
}

type RateLimitConfig struct {
	Enabled         bool          `env:"RATE_LIMIT_ENABLED, default=true"`
	RequestsPerMin  int           `env:"RATE_LIMIT_RPM, default=20"`
	BurstSize       int           `env:"RATE_LIMIT_BURST, default=5"`
	CleanupInterval time.Duration `env:"RATE_LIMIT_CLEANUP, default=10m"`
}

type CORSConfig struct {
	Origins          []string `env:"ORIGINS, default=*"`
	AllowMethods     []string `env:"CORS_ALLOW_METHODS, default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowHeaders     []string `env:"CORS_ALLOW_HEADERS, default=Authorization,Content-Type,X-Request-ID"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS, default=false"`
}

type EmailConfig struct {
	Host     string `env:"EMAIL_HOST"`
	Port     int    `env:"EMAIL_PORT, default=587"`
	User     string `env:"EMAIL_HOST_USER"`
	Password string `env:"EMAIL_HOST_PASSWORD"`
	From     string `env:"EMAIL_FROM"`
}

type CalendarConfig struct {
	CredentialsFile string `env:"CALENDAR_CREDENTIALS_FILE"`
	CalendarID      string `env:"CALENDAR_ID, default=primary"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL, default=info"`
	Pretty bool   `env:"LOG_PRETTY, default=false"`
}

type TracingConfig struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME, default=task-manager"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through the given lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token TTL must be positive")
	}

	if !c.IsProduction() {
		return nil
	}

	if c.Database.Driver == "postgres" && c.Database.Password == "" && c.Database.URL == "" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Auth.PrivateKeyPath == "" || c.Auth.PublicKeyPath == "" {
		return fmt.Errorf("JWT key paths must be set in production")
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetMigrationURL returns a URL-form DSN for golang-migrate.
func (c *Config) GetMigrationURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// EmailEnabled reports whether enough SMTP settings are present to send mail.
func (c *Config) EmailEnabled() bool {
	return c.Email.Host != "" && c.Email.From != ""
}
