package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Discord  DiscordConfig
	Admin    AdminConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Log      LogConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Host          string
	Port          int
	Debug         bool
	Env           string
	BaseURL       string
	SessionSecret string
	CookieSecure  bool
}

type DiscordConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	BotToken     string
	APIURL       string
	CDNURL       string
	Timeout      time.Duration
}

type AdminConfig struct {
	WebAdmins          []string
	Readonly           bool
	MaintenanceMode    bool
	MaintenanceMessage string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

type CacheConfig struct {
	LinesTTL       time.Duration
	UserProfileTTL time.Duration
}

type LogConfig struct {
	Level string
	File  string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	MaxRetries        int
}

// Load reads path (YAML). Every key can be overridden from the environment,
// e.g. DATABASE_HOST for database.host. A .env next to the binary is loaded
// first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:          v.GetString("webserver.host"),
			Port:          v.GetInt("webserver.port"),
			Debug:         v.GetBool("webserver.debug"),
			Env:           v.GetString("webserver.env"),
			BaseURL:       v.GetString("webserver.base_url"),
			SessionSecret: v.GetString("webserver.session_secret"),
			CookieSecure:  v.GetBool("webserver.cookie_secure"),
		},
		Discord: DiscordConfig{
			ClientID:     v.GetString("discord.client_id"),
			ClientSecret: v.GetString("discord.client_secret"),
			RedirectURI:  v.GetString("discord.redirect_uri"),
			BotToken:     v.GetString("discord.bot_token"),
			APIURL:       v.GetString("discord.api_url"),
			CDNURL:       v.GetString("discord.cdn_url"),
			Timeout:      time.Duration(v.GetInt("discord.timeout")) * time.Second,
		},
		Admin: AdminConfig{
			WebAdmins:          parseList(v.GetStringSlice("administration.web_admins")),
			Readonly:           v.GetBool("administration.readonly"),
			MaintenanceMode:    v.GetBool("administration.maintenance_mode"),
			MaintenanceMessage: v.GetString("administration.maintenance_message"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.database"),
			MaxConns:        v.GetInt("database.max_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: time.Duration(v.GetInt("database.conn_max_lifetime")) * time.Second,
			ConnMaxIdleTime: time.Duration(v.GetInt("database.conn_max_idle_time")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			PoolSize: v.GetInt("redis.pool_size"),
		},
		Cache: CacheConfig{
			LinesTTL:       time.Duration(v.GetInt("cache.lines_ttl")) * time.Second,
			UserProfileTTL: time.Duration(v.GetInt("cache.user_profile_ttl")) * time.Second,
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		Worker: WorkerConfig{
			Enabled:           v.GetBool("worker.enabled"),
			ConsumerGroup:     v.GetString("worker.consumer_group"),
			StreamReadTimeout: time.Duration(v.GetInt("worker.stream_read_timeout")) * time.Millisecond,
			MaxRetries:        v.GetInt("worker.max_retries"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("webserver.host", "0.0.0.0")
	v.SetDefault("webserver.port", 30789)
	v.SetDefault("webserver.env", "production")
	v.SetDefault("discord.api_url", "https://discord.com/api/v10")
	v.SetDefault("discord.cdn_url", "https://cdn.discordapp.com")
	v.SetDefault("discord.timeout", 10)
	v.SetDefault("administration.maintenance_message", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.conn_max_idle_time", 60)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("cache.lines_ttl", 30)
	v.SetDefault("cache.user_profile_ttl", 3600)
	v.SetDefault("log.level", "info")
	v.SetDefault("worker.consumer_group", "user-profile-workers")
	v.SetDefault("worker.stream_read_timeout", 5000)
	v.SetDefault("worker.max_retries", 3)
}

// parseList accepts both YAML lists and comma separated env values.
func parseList(items []string) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		for _, p := range strings.Split(item, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}
	return result
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// IsAdmin reports whether userID is listed in administration.web_admins.
func (c *Config) IsAdmin(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range c.Admin.WebAdmins {
		if id == userID {
			return true
		}
	}
	return false
}

// ConfigPath returns CONFIG_FILE or ./config.yml.
func ConfigPath() string {
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		return p
	}
	return "config.yml"
}
