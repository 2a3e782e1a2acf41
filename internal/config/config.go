package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	DB          DBConfig          `mapstructure:"db"`
	Cycle       CycleConfig       `mapstructure:"cycle"`
	Catalogue   CatalogueConfig   `mapstructure:"catalogue"`
	Social      SocialConfig      `mapstructure:"social"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
	Discord     DiscordConfig     `mapstructure:"discord"`
	Correlation CorrelationConfig `mapstructure:"correlation"`
	Dedup       DedupConfig       `mapstructure:"dedup"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// CycleConfig drives the main correlation loop. HalfWindow is the slice of
// the poll interval the broadcast scheduler may spend pacing deliveries; the
// remainder is left for ingestion, adjudication, and dedup passes. When zero
// it is derived as PollInterval/2.
type CycleConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	HalfWindow   time.Duration `mapstructure:"half_window"`
}

type CatalogueConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	PageSize       int           `mapstructure:"page_size"`
	MaxPages       int           `mapstructure:"max_pages"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
}

type SocialConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKeyEnv      string        `mapstructure:"api_key_env"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Accounts       []string      `mapstructure:"accounts"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
}

type OpenAIConfig struct {
	APIKeyEnv      string  `mapstructure:"api_key_env"`
	JudgeModel     string  `mapstructure:"judge_model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	Temperature    float64 `mapstructure:"temperature"`
	EmbedBatchSize int     `mapstructure:"embed_batch_size"`
}

type DiscordConfig struct {
	BotTokenEnv string `mapstructure:"bot_token_env"`
}

// CorrelationConfig carries the matching thresholds. ReportingFloor is the
// relevance below which the adjudicator is told not to report a market at
// all; StorageFloor is the stricter cut applied before a correlation row is
// written. The two are independent knobs, not derived from each other.
type CorrelationConfig struct {
	CandidateCount int     `mapstructure:"candidate_count"`
	ReportingFloor float64 `mapstructure:"reporting_floor"`
	StorageFloor   float64 `mapstructure:"storage_floor"`
}

type DedupConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	LikeWeight          int     `mapstructure:"like_weight"`
	RetweetWeight       int     `mapstructure:"retweet_weight"`
	ReplyWeight         int     `mapstructure:"reply_weight"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cycle.enabled", true)
	v.SetDefault("cycle.poll_interval", "2h")
	v.SetDefault("catalogue.base_url", "https://gamma-api.polymarket.com")
	v.SetDefault("catalogue.timeout", "15s")
	v.SetDefault("catalogue.page_size", 500)
	v.SetDefault("catalogue.max_pages", 40)
	v.SetDefault("catalogue.requests_per_sec", 4)
	v.SetDefault("social.base_url", "https://api.twitterapi.io")
	v.SetDefault("social.api_key_env", "X_API_KEY")
	v.SetDefault("social.timeout", "15s")
	v.SetDefault("social.requests_per_sec", 2)
	v.SetDefault("openai.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("openai.judge_model", "gpt-4o-mini")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.temperature", 0.5)
	v.SetDefault("openai.embed_batch_size", 1000)
	v.SetDefault("discord.bot_token_env", "DISCORD_BOT_TOKEN")
	v.SetDefault("correlation.candidate_count", 50)
	v.SetDefault("correlation.reporting_floor", 0.1)
	v.SetDefault("correlation.storage_floor", 0.6)
	v.SetDefault("dedup.similarity_threshold", 0.95)
	v.SetDefault("dedup.like_weight", 1)
	v.SetDefault("dedup.retweet_weight", 2)
	v.SetDefault("dedup.reply_weight", 1)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Cycle.HalfWindow <= 0 {
		cfg.Cycle.HalfWindow = cfg.Cycle.PollInterval / 2
	}

	return cfg, nil
}
