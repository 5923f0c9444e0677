package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	App     AppConfig
	Log     LogConfig
	Storage StorageConfig
	DB      DBConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Auth    AuthConfig
	Profile ProfileConfig
	QR      QRConfig
}

type AppConfig struct {
	Port string
	Env  string
}

type LogConfig struct {
	Level  string
	Format string
}

type StorageConfig struct {
	Driver   string
	FilePath string
	Timeout  time.Duration
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Migrate  bool
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

type AuthConfig struct {
	BcryptCost          int
	LoginHistoryEnabled bool
	LoginHistoryLimit   int
}

type ProfileConfig struct {
	RequireAge     bool
	IDPrefix       string
	IDSuffixLength int
	IDMaxAttempts  int
}

type QRConfig struct {
	PublicBaseURL string
	ImageSize     int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("STORAGE_FILE_PATH", "database.json")
	v.SetDefault("STORAGE_TIMEOUT", "5s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MIGRATE", true)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "rescue_id")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_EXPIRY", "24h")
	v.SetDefault("AUTH_BCRYPT_COST", 10)
	v.SetDefault("LOGIN_HISTORY_ENABLED", true)
	v.SetDefault("LOGIN_HISTORY_LIMIT", 50)
	v.SetDefault("PROFILE_REQUIRE_AGE", false)
	v.SetDefault("PROFILE_ID_PREFIX", "RID")
	v.SetDefault("PROFILE_ID_SUFFIX_LENGTH", 5)
	v.SetDefault("PROFILE_ID_MAX_ATTEMPTS", 5)
	v.SetDefault("QR_IMAGE_SIZE", 300)
}

// LoadConfig reads .env from the working directory when it exists and lets
// process environment variables override it.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".env")
}

func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	storageTimeout, err := time.ParseDuration(v.GetString("STORAGE_TIMEOUT"))
	if err != nil {
		storageTimeout = 5 * time.Second
	}

	accessExpiry, err := time.ParseDuration(v.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 24 * time.Hour
	}

	config := &Config{
		App: AppConfig{
			Port: v.GetString("APP_PORT"),
			Env:  v.GetString("APP_ENV"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Storage: StorageConfig{
			Driver:   v.GetString("STORAGE_DRIVER"),
			FilePath: v.GetString("STORAGE_FILE_PATH"),
			Timeout:  storageTimeout,
		},
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			Migrate:  v.GetBool("DB_MIGRATE"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DATABASE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: accessExpiry,
		},
		Auth: AuthConfig{
			BcryptCost:          v.GetInt("AUTH_BCRYPT_COST"),
			LoginHistoryEnabled: v.GetBool("LOGIN_HISTORY_ENABLED"),
			LoginHistoryLimit:   v.GetInt("LOGIN_HISTORY_LIMIT"),
		},
		Profile: ProfileConfig{
			RequireAge:     v.GetBool("PROFILE_REQUIRE_AGE"),
			IDPrefix:       v.GetString("PROFILE_ID_PREFIX"),
			IDSuffixLength: v.GetInt("PROFILE_ID_SUFFIX_LENGTH"),
			IDMaxAttempts:  v.GetInt("PROFILE_ID_MAX_ATTEMPTS"),
		},
		QR: QRConfig{
			PublicBaseURL: v.GetString("QR_PUBLIC_BASE_URL"),
			ImageSize:     v.GetInt("QR_IMAGE_SIZE"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageFile, StorageMongo, StoragePostgres, StorageRedis:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Storage.Driver == StorageFile && c.Storage.FilePath == "" {
		return errors.New("STORAGE_FILE_PATH is required for the file driver")
	}
	if c.Profile.IDPrefix == "" {
		return errors.New("PROFILE_ID_PREFIX must not be empty")
	}
	if c.Profile.IDMaxAttempts <= 0 {
		return errors.New("PROFILE_ID_MAX_ATTEMPTS must be positive")
	}
	if c.Auth.LoginHistoryLimit <= 0 {
		return errors.New("LOGIN_HISTORY_LIMIT must be positive")
	}
	if c.QR.ImageSize <= 0 {
		return errors.New("QR_IMAGE_SIZE must be positive")
	}
	return nil
}
