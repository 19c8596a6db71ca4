package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию шлюза мини-приложения.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Asia/Tashkent"`
	Port   int    `envconfig:"PORT" default:"8080"`

	API struct {
		BaseURL       string        `envconfig:"API_BASE_URL" default:"http://localhost:8000"`
		Timeout       time.Duration `envconfig:"API_TIMEOUT" default:"30s"`
		NotifyTimeout time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`
	} `envconfig:""`

	Telegram struct {
		Token          string        `envconfig:"TG_BOT_TOKEN"`
		BotUsername    string        `envconfig:"TG_BOT_USERNAME"`
		InitDataMaxAge time.Duration `envconfig:"TG_INIT_DATA_MAX_AGE" default:"24h"`
	} `envconfig:""`

	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	} `envconfig:""`

	Client struct {
		Cookie     string        `envconfig:"CLIENT_COOKIE" default:"webapp_client"`
		StorageTTL time.Duration `envconfig:"CLIENT_STORAGE_TTL" default:"2160h"`
	} `envconfig:""`

	DefaultLocale string `envconfig:"DEFAULT_LOCALE" default:"uz"`

	Sessions struct {
		IdleTTL time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`
		Max     int           `envconfig:"SESSION_MAX" default:"10000"`
	} `envconfig:""`

	Server struct {
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"5s"`
	} `envconfig:""`

	Metrics struct {
		Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
		Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
	} `envconfig:""`
}

// Location возвращает зону, по которой считаются границы суток.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load загружает конфиг из окружения, предварительно подхватив .env, если он есть.
func Load() AppConfig {
	_ = godotenv.Load()
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
