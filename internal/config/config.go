package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	API          *APIConfig          `mapstructure:"api"`
	Gin          *GinConfig          `mapstructure:"gin"`
	Postgres     *PostgresConfig     `mapstructure:"postgres"`
	Redis        *RedisConfig        `mapstructure:"redis"`
	Gamification *GamificationConfig `mapstructure:"gamification"`
}

type APIConfig struct {
	Environment        string        `mapstructure:"environment"`
	Port               string        `mapstructure:"port"`
	BaseURL            string        `mapstructure:"base_url"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	JWTTTL             time.Duration `mapstructure:"jwt_ttl"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
	LoginRateLimit     float64       `mapstructure:"login_rate_limit"`
	LoginBurst         int           `mapstructure:"login_burst"`
	// TrustedProxies may set X-Forwarded-For. Empty means the peer address is the client IP.
	TrustedProxies     []string      `mapstructure:"trusted_proxies"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders the connection string understood by gorm's postgres driver.
func (c *PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, sslMode)
}

// RedisConfig is optional. An empty Addr disables the leaderboard cache.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type GamificationConfig struct {
	Badges []ThresholdConfig `mapstructure:"badges"`
	Levels []ThresholdConfig `mapstructure:"levels"`
}

type ThresholdConfig struct {
	Points int    `mapstructure:"points"`
	Name   string `mapstructure:"name"`
}

var errMissingSigningKey = errors.New("api.jwt_signing_key must be set")

func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if conf.API.JWTSigningKey == "" {
		return nil, errMissingSigningKey
	}

	return conf, nil
}

// Watch logs changes to the config file at path. The running server keeps the
// config it started with. Only the serving process should call it: the watcher
// lives as long as the process.
func Watch(path string, onChange func(e fsnotify.Event)) {
	v := viper.New()
	v.SetConfigFile(path)
	v.OnConfigChange(func(e fsnotify.Event) {
		zap.L().Info("config file changed, restart to apply", zap.String("file", e.Name), zap.String("op", e.Op.String()))
		if onChange != nil {
			onChange(e)
		}
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("api.jwt_ttl", time.Hour)
	v.SetDefault("api.allowed_cors_domains", []string{"http://localhost:3000"})
	v.SetDefault("api.login_rate_limit", 1.0)
	v.SetDefault("api.login_burst", 5)
	v.SetDefault("api.trusted_proxies", []string{})
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("redis.ttl", 30*time.Second)
	v.SetDefault("gamification.badges", []map[string]any{
		{"points": 100, "name": "Eco-Warrior Level 1"},
		{"points": 500, "name": "Eco-Champion"},
	})
	v.SetDefault("gamification.levels", []map[string]any{
		{"points": 0, "name": "Beginner"},
		{"points": 50, "name": "Eco Warrior"},
		{"points": 80, "name": "Green Champion"},
	})
}
