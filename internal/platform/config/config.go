package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg 保存最近一次加载的配置
var Cfg *Config

// Config 与 config.yaml 的结构一一对应
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Adjudication AdjudicationConfig `mapstructure:"adjudication"`
	Points       PointsConfig       `mapstructure:"points"`
	Bounty       BountyConfig       `mapstructure:"bounty"`
	Leaderboard  LeaderboardConfig  `mapstructure:"leaderboard"`
	Seed         SeedConfig         `mapstructure:"seed"`
}

type ServerConfig struct {
	Mode    string        `mapstructure:"mode"`
	Address string        `mapstructure:"address"`
	Cors    CorsConfig    `mapstructure:"cors"`
	Session SessionConfig `mapstructure:"session"`
}

type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// SessionConfig 会话令牌配置。Secret为空时启动时随机生成。
type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookieName"`
}

type DatabaseConfig struct {
	// Driver 为 sqlite 或 postgres
	Driver   string      `mapstructure:"driver"`
	DSN      string      `mapstructure:"dsn"`
	LogLevel string      `mapstructure:"logLevel"`
	Redis    RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// AdjudicationConfig 外部评分模型配置，APIKey为空时只使用启发式评分。
type AdjudicationConfig struct {
	APIKey      string        `mapstructure:"apiKey"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"baseURL"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"maxTokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type PointsConfig struct {
	StartingBalance int           `mapstructure:"startingBalance"`
	DefaultBounty   int           `mapstructure:"defaultBounty"`
	DefaultBond     int           `mapstructure:"defaultBond"`
	BountyTTL       time.Duration `mapstructure:"bountyTTL"`
}

type BountyConfig struct {
	// ExpirySweep 是cron表达式，例如 "@every 1h"；为空表示不主动过期
	ExpirySweep string `mapstructure:"expirySweep"`
}

type LeaderboardConfig struct {
	// RefreshInterval 后台定期重建排行榜的间隔，0表示只在查看排行榜时重建
	RefreshInterval time.Duration `mapstructure:"refreshInterval"`
}

type SeedConfig struct {
	DemoData bool `mapstructure:"demoData"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("server.session.ttl", 7*24*time.Hour)
	v.SetDefault("server.session.cookieName", "falsifi-session")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "falsifi.db")
	v.SetDefault("database.logLevel", "silent")
	v.SetDefault("database.redis.enabled", false)
	v.SetDefault("database.redis.address", "localhost:6379")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("adjudication.model", "gpt-4o-mini")
	v.SetDefault("adjudication.temperature", 0.3)
	v.SetDefault("adjudication.maxTokens", 1000)
	v.SetDefault("adjudication.timeout", 30*time.Second)

	v.SetDefault("points.startingBalance", 1000)
	v.SetDefault("points.defaultBounty", 100)
	v.SetDefault("points.defaultBond", 50)
	v.SetDefault("points.bountyTTL", 30*24*time.Hour)

	v.SetDefault("bounty.expirySweep", "")
	v.SetDefault("leaderboard.refreshInterval", 10*time.Minute)
	v.SetDefault("seed.demoData", false)
}

// LoadConfig 查找并解析 config.yaml，找不到文件时使用默认值。
// 环境变量可以覆盖任意配置项，例如 SERVER_ADDRESS=":9090"。
func LoadConfig(paths ...string) (*Config, error) {
	// .env 是可选的
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 沿用惯例的环境变量名
	_ = v.BindEnv("adjudication.apiKey", "ADJUDICATION_APIKEY", "OPENAI_API_KEY")
	_ = v.BindEnv("database.dsn", "DATABASE_DSN", "DATABASE_URL")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	Cfg = &cfg
	return Cfg, nil
}
