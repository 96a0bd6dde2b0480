package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию приложения.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	DataDir string `envconfig:"DATA_DIR" default:"./data"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Auth struct {
		BaseURL   string        `envconfig:"AUTH_BASE_URL"`
		AnonKey   string        `envconfig:"AUTH_ANON_KEY"`
		Timeout   time.Duration `envconfig:"AUTH_TIMEOUT" default:"15s"`
		AllowDemo bool          `envconfig:"AUTH_ALLOW_DEMO" default:"false"`
	} `envconfig:""`

	Gemini struct {
		APIKey     string        `envconfig:"GEMINI_API_KEY"`
		TextModel  string        `envconfig:"GEMINI_TEXT_MODEL" default:"gemini-3-flash-preview"`
		ImageModel string        `envconfig:"GEMINI_IMAGE_MODEL" default:"gemini-2.5-flash-image"`
		Timeout    time.Duration `envconfig:"GEMINI_TIMEOUT" default:"60s"`
	} `envconfig:""`

	Limits struct {
		StartTokens    int `envconfig:"START_TOKENS" default:"1000"`
		CommentPreview int `envconfig:"COMMENT_PREVIEW_LEN" default:"20"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
