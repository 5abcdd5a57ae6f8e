package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalid wraps every validation failure returned by Load.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the central typed configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	DB      DBConfig      `mapstructure:"db"`
	Log     LogConfig     `mapstructure:"log"`
	Cleanup CleanupConfig `mapstructure:"cleanup"`
}

type AppConfig struct {
	Name  string `mapstructure:"name" validate:"required"`
	Env   string `mapstructure:"env" validate:"oneof=local production testing"`
	Debug bool   `mapstructure:"debug"`
	URL   string `mapstructure:"url" validate:"omitempty,url"`
	Port  string `mapstructure:"port" validate:"required,numeric"`
	Key   string `mapstructure:"key"`
}

// Addr is the listen address for the HTTP server.
func (a AppConfig) Addr() string { return ":" + a.Port }

type DBConfig struct {
	Driver   string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Database string `mapstructure:"database" validate:"required"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds the connection string for the configured driver. For sqlite
// Database is the file path, or ":memory:".
func (d DBConfig) DSN() string {
	if d.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode)
	}
	return d.Database
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console pretty"`
}

// CleanupConfig drives the scheduled housekeeping run.
type CleanupConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Interval        time.Duration `mapstructure:"interval" validate:"required"`
	RetentionDays   int           `mapstructure:"retention_days" validate:"min=1"`
	RevisionsToKeep int           `mapstructure:"revisions_to_keep" validate:"min=0"`
	BatchSize       int           `mapstructure:"batch_size" validate:"min=1,max=10000"`
}

var defaults = map[string]any{
	"app.name":  "Housekeeper",
	"app.env":   "local",
	"app.debug": true,
	"app.url":   "http://localhost",
	"app.port":  "8000",
	"app.key":   "",

	"db.driver":   "sqlite",
	"db.host":     "127.0.0.1",
	"db.port":     "5432",
	"db.database": "housekeeper.db",
	"db.username": "",
	"db.password": "",
	"db.sslmode":  "disable",

	"log.level":  "info",
	"log.format": "json",

	"cleanup.enabled":           true,
	"cleanup.interval":          "24h",
	"cleanup.retention_days":    30,
	"cleanup.revisions_to_keep": 5,
	"cleanup.batch_size":        500,
}

// Load reads .env (if present) and builds a validated Config from the
// environment. Keys map to variables by upper-casing and replacing dots
// with underscores: db.driver is DB_DRIVER.
//
//	cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return defaultVal
}

// GetInt returns an int env value, or defaultVal when unset or malformed.
func GetInt(key string, defaultVal int) int {
	v, ok := lookup(key)
	if !ok {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value, or defaultVal when unset or malformed.
func GetBool(key string, defaultVal bool) bool {
	v, ok := lookup(key)
	if !ok {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func lookup(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
