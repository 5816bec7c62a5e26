package internal

import (
	"strings"
	"time"
)

// Config is read from the environment (and an optional .env file) at startup.
type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=5000"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	StoreDriver    string `env:"STORE_DRIVER,default=badger"`
	BadgerFilepath string `env:"BADGER_FILEPATH,default=data/badger"`
	SqliteFilepath string `env:"SQLITE_FILEPATH,default=data/chat.db"`
	HistoryLimit   int    `env:"HISTORY_LIMIT,default=100"`

	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	SecureCookie      bool          `env:"SECURE_COOKIE,default=false"`
	Argon2Memory      uint32        `env:"ARGON2_MEMORY,default=65536"`
	Argon2Iterations  uint32        `env:"ARGON2_ITERATIONS,default=3"`
	Argon2Parallelism uint8         `env:"ARGON2_PARALLELISM,default=2"`

	SinkTimeout        time.Duration `env:"SINK_TIMEOUT,default=2s"`
	SendBufferSize     int           `env:"SEND_BUFFER_SIZE,default=256"`
	MaxMessageSize     int64         `env:"MAX_MESSAGE_SIZE,default=65536"`
	RateLimitPerSecond float64       `env:"RATE_LIMIT_PER_SECOND,default=5"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST,default=10"`
	AllowedOrigins     string        `env:"ALLOWED_ORIGINS,default=*"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	HeartbeatInterval  time.Duration `env:"HEARTBEAT_INTERVAL,default=5s"`
	SweepInterval      time.Duration `env:"SWEEP_INTERVAL,default=1m"`
	WorkerMaxBackoff   time.Duration `env:"WORKER_MAX_BACKOFF,default=10s"`

	ServersFile     string        `env:"SERVERS_FILE,default=config.yaml"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT,default=10s"`
	MovieRedirector string        `env:"MOVIE_REDIRECTOR"`
	WeatherURL      string        `env:"WEATHER_URL"`
	MovieURL        string        `env:"MOVIE_URL"`
	MusicURL        string        `env:"MUSIC_URL"`
	NewsURL         string        `env:"NEWS_URL"`
	NewsAPIKey      string        `env:"NEWS_API_KEY"`
	NewsCountry     string        `env:"NEWS_COUNTRY"`

	AIBackend string `env:"AI_BACKEND"`
	AIBaseURL string `env:"AI_BASE_URL,default=https://api.siliconflow.cn/v1"`
	AIAPIKey  string `env:"AI_API_KEY"`
	AIModel   string `env:"AI_MODEL"`
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
