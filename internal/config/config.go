package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr      string
		StaticDir string `mapstructure:"static_dir"`
		ViewsDir  string `mapstructure:"views_dir"`
		GinMode   string `mapstructure:"gin_mode"`
	}
	Database struct {
		Driver string
		Path   string
	}
	Log struct {
		Level string
	}
	Cache struct {
		RedisAddr     string `mapstructure:"redis_addr"`
		RedisPassword string `mapstructure:"redis_password"`
		RedisDB       int    `mapstructure:"redis_db"`
		TTLSeconds    int    `mapstructure:"ttl_seconds"`
	}
	Events struct {
		AMQPURL string `mapstructure:"amqp_url"`
		Queue   string
	}
	Archive struct {
		Bucket    string
		KeyPrefix string `mapstructure:"key_prefix"`
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("EXERCISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:3001")
	v.SetDefault("server.static_dir", "public")
	v.SetDefault("server.views_dir", "views")
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/exercise.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl_seconds", 60)
	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.queue", "exercise.events")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.key_prefix", "exercise-logs")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("aws.profile", "")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// PORT is honoured for platform deployments that only set it.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" && os.Getenv("EXERCISE_SERVER_ADDR") == "" {
		cfg.Server.Addr = "0.0.0.0:" + port
	}

	switch cfg.Database.Driver {
	case "sqlite", "memory":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	return cfg, nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
