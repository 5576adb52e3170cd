package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	JWT       JWTConfig
	Tenancy   TenancyConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	ShutdownPeriod time.Duration `mapstructure:"shutdownPeriod"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type JWTConfig struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	TokenTTL time.Duration `mapstructure:"tokenTTL"`
}

// TenancyConfig drives subdomain-based organization resolution.
// BaseDomain is the apex under which tenant subdomains live
// (e.g. "neurallempire.com"). PlatformHosts are deployment hostnames
// that never carry a tenant (load balancer probes, PaaS domains).
type TenancyConfig struct {
	BaseDomain    string   `mapstructure:"baseDomain"`
	PlatformHosts []string `mapstructure:"platformHosts"`
}

type RateLimitConfig struct {
	DefaultPerMinute int    `mapstructure:"defaultPerMinute"`
	UseRedis         bool   `mapstructure:"useRedis"`
	Prefix           string `mapstructure:"prefix"`
}

func LoadConfig(configPath string) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables and config file")
	}

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.readTimeout", 5*time.Second)
	viper.SetDefault("server.writeTimeout", 10*time.Second)
	viper.SetDefault("server.idleTimeout", 120*time.Second)
	viper.SetDefault("server.shutdownPeriod", 15*time.Second)

	viper.SetDefault("database.maxOpenConns", 25)
	viper.SetDefault("database.maxIdleConns", 25)
	viper.SetDefault("database.connMaxLifetime", 5*time.Minute)

	viper.SetDefault("redis.db", "0")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)

	viper.SetDefault("jwt.issuer", "neurallempire-api")
	viper.SetDefault("jwt.tokenTTL", 24*time.Hour)

	viper.SetDefault("tenancy.baseDomain", "neurallempire.com")
	viper.SetDefault("tenancy.platformHosts", []string{
		"neurallempire.onrender.com",
		"neurallempire-api.onrender.com",
	})

	viper.SetDefault("ratelimit.defaultPerMinute", 60)
	viper.SetDefault("ratelimit.useRedis", false)
	viper.SetDefault("ratelimit.prefix", "neurallempire:ratelimit:")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AllowEmptyEnv(true)

	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			log.Printf("Warning: could not read config file: %s. Error: %v\n", configPath, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
