package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	BucketPortraits string
	BucketGenerated string
	UseSSL          bool
	Region          string
}

type SecurityConfig struct {
	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTAccessTTL     time.Duration
	JWTRefreshTTL    time.Duration
	MaxSessions      int
}

type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
}

type IntakeConfig struct {
	MaxDimension  int
	JPEGQuality   int
	MaxUploadSize int64
	SlotTTL       time.Duration
}

type AnalysisConfig struct {
	CacheTTL      time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
}

// DemoConfig gates the demo premium account. The account is a testing
// fixture and must stay disabled in production deployments.
type DemoConfig struct {
	Enabled bool
	Email   string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Gemini           GeminiConfig
	Intake           IntakeConfig
	Analysis         AnalysisConfig
	Demo             DemoConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("ESTHETICA")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Environment == "production" && cfg.Demo.Enabled {
		return nil, fmt.Errorf("demo account cannot be enabled in production")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "15s")
	v.SetDefault("http.writetimeout", "120s") // generation runs are slow
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "analysis:tasks")
	v.SetDefault("redis.group", "esthetica-workers")
	v.SetDefault("redis.consumer", "worker-1")
	v.SetDefault("redis.claiminterval", "60s")

	v.SetDefault("storage.bucketportraits", "esthetica-portraits")
	v.SetDefault("storage.bucketgenerated", "esthetica-generated")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.jwtaccessttl", "15m")
	v.SetDefault("security.jwtrefreshttl", "720h") // 30 days
	v.SetDefault("security.maxsessions", 10)

	v.SetDefault("gemini.baseurl", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.apiversion", "v1beta")
	v.SetDefault("gemini.textmodel", "gemini-2.5-flash")
	v.SetDefault("gemini.imagemodel", "gemini-2.5-flash-image")
	v.SetDefault("gemini.timeout", "90s")

	v.SetDefault("intake.maxdimension", 800)
	v.SetDefault("intake.jpegquality", 85)
	v.SetDefault("intake.maxuploadsize", 20<<20)
	v.SetDefault("intake.slotttl", "24h")

	v.SetDefault("analysis.cachettl", "72h")
	v.SetDefault("analysis.retryattempts", 3)
	v.SetDefault("analysis.retrybackoff", "1s")

	v.SetDefault("demo.enabled", false)
}
