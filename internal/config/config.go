package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Google    GoogleConfig    `mapstructure:"google"`
	Admin     AdminConfig     `mapstructure:"admin"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Email     EmailConfig     `mapstructure:"email"`
	Upload    UploadConfig    `mapstructure:"upload"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`
	WriteTimeout   int      `mapstructure:"write_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig: driver "postgres" (production) или "sqlite" (локальная разработка)
type DatabaseConfig struct {
	Driver         string `mapstructure:"driver"`
	Host           string `mapstructure:"host"`
	Port           string `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	DBName         string `mapstructure:"dbname"`
	SSLMode        string `mapstructure:"sslmode"`
	SQLitePath     string `mapstructure:"sqlite_path"`
	MaxOpenConns   int    `mapstructure:"max_open_conns"`
	MaxIdleConns   int    `mapstructure:"max_idle_conns"`
	MigrationsPath string `mapstructure:"migrations_path"`
	LogSQL         bool   `mapstructure:"log_sql"`
}

// RedisConfig: пустой Addr отключает Redis (кеш и распределенный rate limit)
type RedisConfig struct {
	Mode       string   `mapstructure:"mode"`
	Addrs      []string `mapstructure:"addrs"`
	Addr       string   `mapstructure:"addr"`
	Password   string   `mapstructure:"password"`
	DB         int      `mapstructure:"db"`
	MasterName string   `mapstructure:"master_name"`
	MaxRetries int      `mapstructure:"max_retries"`
}

// JWTConfig содержит настройки выпуска токенов
type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	Issuer           string `mapstructure:"issuer"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLDays   int    `mapstructure:"refresh_ttl_days"`
}

// GoogleConfig содержит настройки входа через Google
type GoogleConfig struct {
	ClientID       string `mapstructure:"client_id"`
	TokenInfoURL   string `mapstructure:"tokeninfo_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// AdminConfig - учетные данные первичного администратора.
// Значений по умолчанию нет: если email или пароль пусты, bootstrap пропускается.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// RateLimitConfig: store "memory" (один процесс) или "redis" (несколько инстансов)
type RateLimitConfig struct {
	Store           string `mapstructure:"store"`
	MaxRequests     int    `mapstructure:"max_requests"`
	WindowSeconds   int    `mapstructure:"window_seconds"`
	AuthMaxRequests int    `mapstructure:"auth_max_requests"`
}

// EmailConfig: пустой APIKey отключает отправку писем
type EmailConfig struct {
	APIKey string `mapstructure:"api_key"`
	From   string `mapstructure:"from"`
}

// UploadConfig ограничивает размер загружаемых файлов импорта
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

const minJWTSecretLength = 32

// PostgresConnectionString возвращает DSN для PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// AccessTTL возвращает время жизни access-токена
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTTLMinutes) * time.Minute
}

// RefreshTTL возвращает время жизни refresh-токена
func (j JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTTLDays) * 24 * time.Hour
}

// Window возвращает окно rate limit
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// Enabled сообщает, задан ли адрес Redis
func (r RedisConfig) Enabled() bool {
	return r.Addr != "" || len(r.Addrs) > 0
}

// BootstrapEnabled сообщает, заданы ли учетные данные администратора
func (a AdminConfig) BootstrapEnabled() bool {
	return a.Email != "" && a.Password != ""
}

// LoadEnvFiles подгружает .env файлы в окружение процесса.
// Отсутствующие файлы пропускаются, существующие переменные не перезаписываются.
func LoadEnvFiles(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			log.Printf("[Config] Warning: failed to load env file %s: %v", path, err)
			continue
		}
		log.Printf("[Config] Loaded env file %s", path)
	}
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 30)
	vip.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	vip.SetDefault("database.driver", "postgres")
	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.sqlite_path", "quiz.db")
	vip.SetDefault("database.max_open_conns", 25)
	vip.SetDefault("database.max_idle_conns", 10)
	vip.SetDefault("database.migrations_path", "file://migrations")

	vip.SetDefault("redis.mode", "single")

	vip.SetDefault("jwt.issuer", "quiz-api")
	vip.SetDefault("jwt.access_ttl_minutes", 30)
	vip.SetDefault("jwt.refresh_ttl_days", 7)

	vip.SetDefault("google.tokeninfo_url", "https://oauth2.googleapis.com/tokeninfo")
	vip.SetDefault("google.timeout_seconds", 10)

	vip.SetDefault("admin.name", "Administrator")

	vip.SetDefault("rate_limit.store", "memory")
	vip.SetDefault("rate_limit.max_requests", 60)
	vip.SetDefault("rate_limit.window_seconds", 60)
	vip.SetDefault("rate_limit.auth_max_requests", 10)

	vip.SetDefault("email.from", "Quiz <no-reply@quiz.local>")

	vip.SetDefault("upload.max_bytes", 10<<20)
}

func bindEnv(vip *viper.Viper) {
	bindings := map[string]string{
		"server.port":            "SERVER_PORT",
		"server.read_timeout":    "SERVER_READ_TIMEOUT",
		"server.write_timeout":   "SERVER_WRITE_TIMEOUT",
		"server.allowed_origins": "CORS_ALLOWED_ORIGINS",

		"database.driver":          "DATABASE_DRIVER",
		"database.host":            "DATABASE_HOST",
		"database.port":            "DATABASE_PORT",
		"database.user":            "DATABASE_USER",
		"database.password":        "DATABASE_PASSWORD",
		"database.dbname":          "DATABASE_DBNAME",
		"database.sslmode":         "DATABASE_SSLMODE",
		"database.sqlite_path":     "DATABASE_SQLITE_PATH",
		"database.migrations_path": "DATABASE_MIGRATIONS_PATH",
		"database.log_sql":         "DATABASE_LOG_SQL",

		"redis.mode":        "REDIS_MODE",
		"redis.addrs":       "REDIS_ADDRS",
		"redis.addr":        "REDIS_ADDR",
		"redis.password":    "REDIS_PASSWORD",
		"redis.db":          "REDIS_DB",
		"redis.master_name": "REDIS_MASTER_NAME",

		"jwt.secret":             "JWT_SECRET",
		"jwt.issuer":             "JWT_ISSUER",
		"jwt.access_ttl_minutes": "JWT_ACCESS_TTL_MINUTES",
		"jwt.refresh_ttl_days":   "JWT_REFRESH_TTL_DAYS",

		"google.client_id":       "GOOGLE_CLIENT_ID",
		"google.tokeninfo_url":   "GOOGLE_TOKENINFO_URL",
		"google.timeout_seconds": "GOOGLE_TIMEOUT_SECONDS",

		"admin.email":    "ADMIN_EMAIL",
		"admin.password": "ADMIN_PASSWORD",
		"admin.name":     "ADMIN_NAME",

		"rate_limit.store":             "RATE_LIMIT_STORE",
		"rate_limit.max_requests":      "RATE_LIMIT_MAX_REQUESTS",
		"rate_limit.window_seconds":    "RATE_LIMIT_WINDOW_SECONDS",
		"rate_limit.auth_max_requests": "RATE_LIMIT_AUTH_MAX_REQUESTS",

		"email.api_key": "RESEND_API_KEY",
		"email.from":    "EMAIL_FROM",

		"upload.max_bytes": "UPLOAD_MAX_BYTES",
	}
	for key, env := range bindings {
		_ = vip.BindEnv(key, env)
	}
}

// Load загружает конфигурацию из файла (если указан) и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	setDefaults(vip)
	bindEnv(vip)

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
				log.Printf("[Config] Config file '%s' not found, using environment and defaults", configPath)
			} else {
				log.Printf("[Config] Warning: failed to read config file '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// CORS_ALLOWED_ORIGINS приходит из env одной строкой через запятую
	cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins)
	cfg.Redis.Addrs = splitList(cfg.Redis.Addrs)
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.RateLimit.Store = strings.ToLower(strings.TrimSpace(cfg.RateLimit.Store))

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("[Config] --- Loaded configuration ---")
		log.Printf("[Config] Database driver: %s", cfg.Database.Driver)
		log.Printf("[Config] Database host: %s, name: %s", cfg.Database.Host, cfg.Database.DBName)
		log.Printf("[Config] Redis enabled: %t", cfg.Redis.Enabled())
		log.Printf("[Config] JWT access TTL: %d min, refresh TTL: %d days", cfg.JWT.AccessTTLMinutes, cfg.JWT.RefreshTTLDays)
		log.Printf("[Config] Google client id set: %t", cfg.Google.ClientID != "")
		log.Printf("[Config] Admin bootstrap enabled: %t", cfg.Admin.BootstrapEnabled())
		log.Printf("[Config] Rate limit store: %s", cfg.RateLimit.Store)
		log.Printf("[Config] Email enabled: %t", cfg.Email.APIKey != "")
		log.Printf("[Config] Server port: %s", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные поля и согласованность настроек
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < minJWTSecretLength {
		return fmt.Errorf("jwt secret must be at least %d bytes (check JWT_SECRET env var)", minJWTSecretLength)
	}
	if c.JWT.AccessTTLMinutes <= 0 || c.JWT.RefreshTTLDays <= 0 {
		return fmt.Errorf("jwt token lifetimes must be positive")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			return fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required when database driver is sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	switch c.RateLimit.Store {
	case "memory":
	case "redis":
		if !c.Redis.Enabled() {
			return fmt.Errorf("rate limit store 'redis' requires REDIS_ADDR or REDIS_ADDRS")
		}
	default:
		return fmt.Errorf("unsupported rate limit store: %q", c.RateLimit.Store)
	}
	if c.RateLimit.MaxRequests <= 0 || c.RateLimit.WindowSeconds <= 0 || c.RateLimit.AuthMaxRequests <= 0 {
		return fmt.Errorf("rate limit values must be positive")
	}

	if (c.Admin.Email == "") != (c.Admin.Password == "") {
		return fmt.Errorf("admin bootstrap requires both ADMIN_EMAIL and ADMIN_PASSWORD")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive")
	}
	return nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
