package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	Queue    QueueConfig
	Updater  UpdaterConfig
	Stats    StatsConfig
	Database DatabaseConfig
	MarketDB MarketDBConfig
	Cache    CacheConfig
	Nats     NatsConfig
	Alert    AlertConfig
}

// ServerConfig holds the status HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// QueueConfig controls how tracked items are partitioned into buckets.
type QueueConfig struct {
	// Priorities is the ordered list of tiers queued each cycle.
	Priorities []int `envconfig:"QUEUE_PRIORITIES" default:"1,2,3,4,5"`
	// Consumers maps priority -> number of worker invocations per cycle.
	Consumers map[string]int `envconfig:"QUEUE_CONSUMERS" default:"1:10,2:6,3:4,4:2,5:1"`
	// Names maps priority -> display name for the statistics table.
	Names          map[string]string `envconfig:"QUEUE_NAMES" default:"1:Legendary,2:Popular,3:Common,4:Quiet,5:Dead"`
	BatchSize      int               `envconfig:"QUEUE_BATCH_SIZE" default:"250"`
	MaxPerBucket   int               `envconfig:"QUEUE_MAX_PER_BUCKET" default:"50"`
	PublishSubject string            `envconfig:"QUEUE_PUBLISH_SUBJECT" default:"market.update.bucket"`
}

// UpdaterConfig controls one worker run.
type UpdaterConfig struct {
	Deadline            time.Duration `envconfig:"UPDATE_DEADLINE" default:"55s"`
	ErrorCountThreshold int           `envconfig:"UPDATE_ERROR_THRESHOLD" default:"30"`
	ErrorCountWindow    time.Duration `envconfig:"UPDATE_ERROR_WINDOW" default:"10m"`
	// PacingHours maps a reference-timezone hour to a "min-max" seconds
	// range slept after a successful fetch during that hour.
	PacingHours    map[string]string `envconfig:"UPDATE_PACING_HOURS" default:"9:1-3,10:2-5,11:2-6,12:2-6,13:2-6,14:2-6,15:2-8,16:1-5,17:1-4"`
	PacingTimezone string            `envconfig:"UPDATE_PACING_TZ" default:"Asia/Tokyo"`
	ClientTimeout  time.Duration     `envconfig:"PROVIDER_CLIENT_TIMEOUT" default:"5s"`
	ProviderURL    string            `envconfig:"PROVIDER_URL" default:""`
}

// StatsConfig controls the statistics estimator.
type StatsConfig struct {
	Retention time.Duration `envconfig:"STATS_RETENTION" default:"1h"`
	CacheTTL  time.Duration `envconfig:"STATS_CACHE_TTL" default:"168h"`
	CacheKey  string        `envconfig:"STATS_CACHE_KEY" default:"stats:market_update"`
}

// DatabaseConfig holds MySQL connection settings (tracked items, queue,
// credentials, completion records, traders).
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"marketboard"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`
}

// MarketDBConfig holds market record store settings.
type MarketDBConfig struct {
	Type string `envconfig:"MARKET_DB_TYPE" default:"sqlite"` // sqlite, postgres, or mongodb
	Path string `envconfig:"MARKET_DB_PATH" default:"./data/market.db"`
	// PostgreSQL settings
	Host     string `envconfig:"MARKET_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"MARKET_DB_PORT" default:"5432"`
	Name     string `envconfig:"MARKET_DB_NAME" default:"marketboard"`
	User     string `envconfig:"MARKET_DB_USER" default:"postgres"`
	Password string `envconfig:"MARKET_DB_PASS" default:""`
	SSLMode  string `envconfig:"MARKET_DB_SSLMODE" default:"disable"`
	// MongoDB settings
	MongoURI        string `envconfig:"MONGODB_URI" default:""`
	MongoDatabase   string `envconfig:"MONGODB_DATABASE" default:"marketboard"`
	MongoCollection string `envconfig:"MONGODB_COLLECTION" default:"market_records"`
}

// CacheConfig holds Redis settings (snapshot cache, tracking counters).
type CacheConfig struct {
	Type          string `envconfig:"CACHE_TYPE" default:"redis"`
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// NatsConfig holds bucket dispatch settings.
type NatsConfig struct {
	URL     string `envconfig:"NATS_URL" default:""`
	Stream  string `envconfig:"NATS_STREAM" default:"MARKET_UPDATE"`
	Durable string `envconfig:"NATS_DURABLE" default:"market-update-workers"`
}

// AlertConfig holds the outbound alert webhook settings.
type AlertConfig struct {
	WebhookURL string `envconfig:"ALERT_WEBHOOK_URL" default:""`
	Channel    string `envconfig:"ALERT_CHANNEL" default:"market-ops"`
}

// DSN returns the MySQL data source name.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// PostgresDSN returns the PostgreSQL connection string.
func (m *MarketDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		m.User, m.Password, m.Host, m.Port, m.Name, m.SSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// ConsumersFor returns the consumer count for a priority tier.
func (q *QueueConfig) ConsumersFor(priority int) int {
	return q.Consumers[strconv.Itoa(priority)]
}

// NameFor returns the display name for a priority tier.
func (q *QueueConfig) NameFor(priority int) string {
	if name, ok := q.Names[strconv.Itoa(priority)]; ok {
		return name
	}
	return "Unknown Queue"
}

// TopPriority returns the highest-priority tier (lowest number), used
// as the throughput calibration sample.
func (q *QueueConfig) TopPriority() int {
	ps := make([]int, len(q.Priorities))
	copy(ps, q.Priorities)
	sort.Ints(ps)
	if len(ps) == 0 {
		return 1
	}
	return ps[0]
}

// PacingRange returns the configured min/max pacing seconds for an hour.
// ok is false when the hour has no pacing entry.
func (u *UpdaterConfig) PacingRange(hour int) (min, max int, ok bool) {
	spec, found := u.PacingHours[strconv.Itoa(hour)]
	if !found {
		return 0, 0, false
	}
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	min, err1 := strconv.Atoi(parts[0])
	max, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || max < min {
		return 0, 0, false
	}
	return min, max, true
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
