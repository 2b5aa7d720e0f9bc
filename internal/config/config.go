package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	App struct {
		Env string
	}
	Server struct {
		Addr string
	}
	HTTP struct {
		AllowOrigin string
	}
	Log struct {
		Level  string
		Format string
	}
	Database struct {
		Driver string
		URL    string
		Name   string
		Path   string
	}
	Auth struct {
		AccessSecret  string
		AccessTTL     time.Duration
		RefreshSecret string
		RefreshTTL    time.Duration
		SecureCookies bool
	}
	Upload struct {
		TempDir  string
		MaxBytes int64
	}
	Storage struct {
		Bucket        string
		Region        string
		Endpoint      string
		KeyPrefix     string
		PublicBaseURL string
		PublicACL     bool
	}
	AWS struct {
		Profile string
	}
	Redis struct {
		URL string
	}
}

// Production reports whether the service runs with production settings.
func (c Config) Production() bool {
	return strings.EqualFold(c.App.Env, "production")
}

// Load reads configuration from environment variables and optional config files.
// A .env file in the working directory is applied first without overriding variables
// that are already set.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TASKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "development")
	v.SetDefault("server.addr", "0.0.0.0:8000")
	v.SetDefault("http.alloworigin", "http://localhost:5173")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.url", "mongodb://localhost:27017")
	v.SetDefault("database.name", "taskflow")
	v.SetDefault("database.path", "data/taskflow.db")
	v.SetDefault("auth.accesssecret", "")
	v.SetDefault("auth.accessttl", 15*time.Minute)
	v.SetDefault("auth.refreshsecret", "")
	v.SetDefault("auth.refreshttl", 240*time.Hour)
	v.SetDefault("upload.tempdir", "public/temp")
	v.SetDefault("upload.maxbytes", 5<<20)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.keyprefix", "avatars")
	v.SetDefault("storage.publicbaseurl", "")
	v.SetDefault("storage.publicacl", false)
	v.SetDefault("aws.profile", "")
	v.SetDefault("redis.url", "")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// secure cookies follow the environment unless set explicitly; the key has no
	// default so IsSet only sees env and config file values
	cfg.Auth.SecureCookies = cfg.Production()
	if v.IsSet("auth.securecookies") {
		cfg.Auth.SecureCookies = v.GetBool("auth.securecookies")
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.AccessSecret) == "" {
		errs = append(errs, errors.New("auth access secret is required"))
	}
	if strings.TrimSpace(c.Auth.RefreshSecret) == "" {
		errs = append(errs, errors.New("auth refresh secret is required"))
	}
	if c.Auth.AccessSecret != "" && c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, errors.New("access and refresh secrets must differ"))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.URL == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("database url and name are required for mongo"))
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		errs = append(errs, errors.New("storage bucket is required"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("upload max bytes must be positive"))
	}
	return errors.Join(errs...)
}
