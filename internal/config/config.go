// Package config loads runtime settings from a .env file and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// Recipe source names accepted by SOUSCHEF_RECIPE_SOURCE.
const (
	SourceMemory = "memory"
	SourceMealDB = "mealdb"
)

// Duration parses "10s", "5m" or a bare number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalEnvironment(data string) error {
	v, err := parseDuration(data)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func parseDuration(s string) (time.Duration, error) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must look like 10s, 5m or a number of seconds: %w", err)
	}
	return d, nil
}

// Config is the full runtime configuration.
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	Recipes RecipeConfig
	Redis   RedisConfig
	Pantry  PantryConfig
	Timers  TimerConfig
	Speech  SpeechConfig
	GPT     GPTConfig
}

type AppConfig struct {
	LogLevel string `env:"SOUSCHEF_LOG_LEVEL" env-default:"normal"`
	// LogFile of "stderr" logs to the console.
	LogFile string `env:"SOUSCHEF_LOG_FILE" env-default:".souschef/souschef.log"`
}

type HTTPConfig struct {
	Addr         string   `env:"SOUSCHEF_HTTP_ADDR" env-default:":8080"`
	ReadTimeout  Duration `env:"SOUSCHEF_HTTP_READ_TIMEOUT" env-default:"10s"`
	IdleTimeout  Duration `env:"SOUSCHEF_HTTP_IDLE_TIMEOUT" env-default:"60s"`
	CORSOrigins  []string `env:"SOUSCHEF_CORS_ORIGINS" env-default:"*" env-separator:","`
	EventsBuffer int      `env:"SOUSCHEF_EVENTS_BUFFER" env-default:"16"`
}

type RecipeConfig struct {
	Source    string   `env:"SOUSCHEF_RECIPE_SOURCE" env-default:"memory"`
	MealDBURL string   `env:"SOUSCHEF_MEALDB_URL" env-default:"https://www.themealdb.com/api/json/v1/1"`
	BookPath  string   `env:"SOUSCHEF_RECIPE_BOOK" env-default:""`
	CacheTTL  Duration `env:"SOUSCHEF_RECIPE_CACHE_TTL" env-default:"10m"`
}

type RedisConfig struct {
	// Addr is "host:port". Leave empty, with URL unset, to cache in process.
	Addr     string `env:"REDIS_ADDR" env-default:""`
	Password string `env:"REDIS_PASSWORD" env-default:""`
	DB       int    `env:"REDIS_DB" env-default:"0"`
	// URL overrides Addr, Password and DB. Example: redis://default:pw@host:6379/0
	URL string `env:"REDIS_URL" env-default:""`
}

type PantryConfig struct {
	// DBPath of "" keeps the pantry in memory.
	DBPath string `env:"SOUSCHEF_DB_PATH" env-default:".souschef/pantry.db"`
}

type TimerConfig struct {
	TickInterval Duration `env:"SOUSCHEF_TICK_INTERVAL" env-default:"1s"`
	AlmostDone   Duration `env:"SOUSCHEF_ALMOST_DONE" env-default:"30s"`
}

type SpeechConfig struct {
	AzureKey     string   `env:"AZURE_SPEECH_KEY" env-default:""`
	AzureRegion  string   `env:"AZURE_SPEECH_REGION" env-default:""`
	Voice        string   `env:"SOUSCHEF_VOICE" env-default:"en-US-AvaNeural"`
	CacheDir     string   `env:"SOUSCHEF_TTS_CACHE_DIR" env-default:".souschef/tts"`
	DiskCache    bool     `env:"SOUSCHEF_TTS_DISK_CACHE" env-default:"true"`
	WhisperBin   string   `env:"SOUSCHEF_WHISPER_BIN" env-default:"whisper-cli"`
	WhisperModel string   `env:"SOUSCHEF_WHISPER_MODEL" env-default:"bin/ggml-small.bin"`
	Chunk        Duration `env:"SOUSCHEF_RECORD_CHUNK" env-default:"2s"`
	Language     string   `env:"SOUSCHEF_LANGUAGE" env-default:"en-US"`
}

type GPTConfig struct {
	Key      string `env:"GPT_CHAT_KEY" env-default:""`
	Endpoint string `env:"GPT_CHAT_ENDPOINT" env-default:""`
	Model    string `env:"GPT_CHAT_MODEL" env-default:""`
	// Bearer sends "Authorization: Bearer" instead of the api-key header.
	Bearer bool `env:"GPT_CHAT_BEARER" env-default:"false"`
}

// TTSEnabled reports whether Azure credentials are present.
func (s SpeechConfig) TTSEnabled() bool { return s.AzureKey != "" && s.AzureRegion != "" }

// Enabled reports whether the assistant has credentials.
func (g GPTConfig) Enabled() bool { return g.Key != "" && g.Endpoint != "" }

// Enabled reports whether a Redis server is configured.
func (r RedisConfig) Enabled() bool { return r.URL != "" || r.Addr != "" }

// Options builds go-redis client options. URL wins over Addr.
func (r RedisConfig) Options() (*redis.Options, error) {
	if r.URL != "" {
		opts, err := redis.ParseURL(strings.TrimSpace(r.URL))
		if err != nil {
			return nil, fmt.Errorf("REDIS_URL: %w", err)
		}
		return opts, nil
	}
	if r.Addr == "" {
		return nil, errors.New("REDIS_ADDR or REDIS_URL is required")
	}
	return &redis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB}, nil
}

// Load reads envFile when it exists, then the environment. Variables
// already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Recipes.Source {
	case SourceMemory, SourceMealDB:
	default:
		return fmt.Errorf("SOUSCHEF_RECIPE_SOURCE: unknown source %q", c.Recipes.Source)
	}
	if c.Timers.TickInterval.Std() <= 0 {
		return errors.New("SOUSCHEF_TICK_INTERVAL must be positive")
	}
	if c.Redis.Enabled() {
		if _, err := c.Redis.Options(); err != nil {
			return err
		}
	}
	return nil
}
