package config

import (
	"os"
	"strconv"
	"time"
)

// DBConfig 数据库配置
type DBConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	User          string        `yaml:"user"`
	Password      string        `yaml:"password"`
	Name          string        `yaml:"name"`
	MaxConns      int32         `yaml:"max_conns"`
	SlowThreshold time.Duration `yaml:"slow_threshold"`
}

// MQConfig 消息队列配置
type MQConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	DedupTTL time.Duration `yaml:"dedup_ttl"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `yaml:"port"`
}

// OTelConfig 追踪配置
type OTelConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Exporter    string `yaml:"exporter"` // otlp / stdout
	Endpoint    string `yaml:"endpoint"`
}

// OutboxConfig Outbox dispatcher 配置
type OutboxConfig struct {
	Interval   time.Duration `yaml:"interval"`
	BatchSize  int           `yaml:"batch_size"`
	MaxRetries int           `yaml:"max_retries"`

	// 连续发布失败多少次后熔断，熔断持续 BreakerTimeout
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout"`
}

// ClientConfig pmctl 使用的 API 地址
type ClientConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

type Config struct {
	DB     DBConfig     `yaml:"db"`
	MQ     MQConfig     `yaml:"mq"`
	Redis  RedisConfig  `yaml:"redis"`
	JWT    JWTConfig    `yaml:"jwt"`
	Server ServerConfig `yaml:"server"`
	OTel   OTelConfig   `yaml:"otel"`
	Outbox OutboxConfig `yaml:"outbox"`
	Client ClientConfig `yaml:"client"`
}

// OverrideDBFromEnv 从环境变量覆盖数据库配置
func OverrideDBFromEnv(cfg *DBConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}
}

// OverrideMQFromEnv 从环境变量覆盖MQ配置
func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
}

// OverrideRedisFromEnv 从环境变量覆盖Redis配置
func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
}

// OverrideJWTFromEnv 从环境变量覆盖JWT配置
func OverrideJWTFromEnv(cfg *JWTConfig) {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Secret = secret
	}
}

// OverrideServerFromEnv 从环境变量覆盖服务器配置
func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
}

// OverrideOTelFromEnv 从环境变量覆盖追踪配置
func OverrideOTelFromEnv(cfg *OTelConfig) {
	if endpoint := os.Getenv("OTEL_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if enabled := os.Getenv("OTEL_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			cfg.Enabled = b
		}
	}
}

// OverrideClientFromEnv 从环境变量覆盖 pmctl 配置
func OverrideClientFromEnv(cfg *ClientConfig) {
	if url := os.Getenv("PMBOARD_URL"); url != "" {
		cfg.BaseURL = url
	}
	if token := os.Getenv("PMBOARD_TOKEN"); token != "" {
		cfg.Token = token
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 10
	}
	if cfg.DB.SlowThreshold == 0 {
		cfg.DB.SlowThreshold = 100 * time.Millisecond
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 24 * time.Hour
	}
	if cfg.Redis.DedupTTL == 0 {
		cfg.Redis.DedupTTL = 24 * time.Hour
	}
	if cfg.Outbox.Interval == 0 {
		cfg.Outbox.Interval = time.Second
	}
	if cfg.Outbox.BatchSize == 0 {
		cfg.Outbox.BatchSize = 100
	}
	if cfg.Outbox.MaxRetries == 0 {
		cfg.Outbox.MaxRetries = 5
	}
	if cfg.Outbox.BreakerThreshold == 0 {
		cfg.Outbox.BreakerThreshold = 5
	}
	if cfg.Outbox.BreakerTimeout == 0 {
		cfg.Outbox.BreakerTimeout = 30 * time.Second
	}
	if cfg.OTel.ServiceName == "" {
		cfg.OTel.ServiceName = "pmboard"
	}
}
