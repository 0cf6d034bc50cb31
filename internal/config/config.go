package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	RSVP     RSVPConfig     `yaml:"rsvp"`
	Auth     AuthConfig     `yaml:"auth"`
	Assets   AssetsConfig   `yaml:"assets"`
}

type ServerConfig struct {
	Port            string        `yaml:"port" env:"PORT" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" env:"SERVER_MAX_BODY_BYTES" env-default:"65536"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

// DatabaseConfig selects the store. Driver "postgres" uses URL when set and
// otherwise builds a DSN from the individual fields. Driver "sqlite" uses Path.
type DatabaseConfig struct {
	Driver         string        `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	URL            string        `yaml:"url" env:"DATABASE_URL"`
	Host           string        `yaml:"host" env:"DB_HOST"`
	Port           string        `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Username       string        `yaml:"username" env:"DB_USERNAME"`
	Password       string        `yaml:"password" env:"DB_PASSWORD"`
	Name           string        `yaml:"name" env:"DB_NAME"`
	SSLMode        string        `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
	Path           string        `yaml:"path" env:"DB_PATH" env-default:"file:rsvp.db?cache=shared"`
	MaxOpenConns   int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns   int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	MaxLifetime    time.Duration `yaml:"max_lifetime" env:"DB_MAX_LIFETIME" env-default:"5m"`
	ConnectRetries int           `yaml:"connect_retries" env:"DB_CONNECT_RETRIES" env-default:"5"`
	AutoMigrate    bool          `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"false"`
	MigrationsDir  string        `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR" env-default:"./migrations"`
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"true"`
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type KafkaConfig struct {
	Enabled bool        `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Brokers []string    `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	GroupID string      `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"rsvp-notifier"`
	Topics  TopicConfig `yaml:"topics"`
}

type TopicConfig struct {
	RSVPSubmitted string `yaml:"rsvp_submitted" env:"KAFKA_TOPIC_RSVP_SUBMITTED" env-default:"wedding.rsvp.submitted"`
}

type RSVPConfig struct {
	SubmitTimeout  time.Duration `yaml:"submit_timeout" env:"RSVP_SUBMIT_TIMEOUT" env-default:"15s"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl" env:"RSVP_IDEMPOTENCY_TTL" env-default:"10m"`
	StatsTTL       time.Duration `yaml:"stats_ttl" env:"RSVP_STATS_TTL" env-default:"30s"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret" env:"ADMIN_JWT_SECRET"`
	OIDCIssuer   string        `yaml:"oidc_issuer" env:"OIDC_ISSUER"`
	OIDCAudience string        `yaml:"oidc_audience" env:"OIDC_AUDIENCE"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"ADMIN_TOKEN_TTL" env-default:"12h"`

	// OIDC tokens pass when they carry OIDCAdminRole or their subject is listed.
	OIDCAdminRole     string   `yaml:"oidc_admin_role" env:"OIDC_ADMIN_ROLE" env-default:"admin"`
	OIDCAdminSubjects []string `yaml:"oidc_admin_subjects" env:"OIDC_ADMIN_SUBJECTS" env-separator:","`
}

type AssetsConfig struct {
	GalleryDir string `yaml:"gallery_dir" env:"GALLERY_DIR" env-default:"./assets/gallery"`
	InviteURL  string `yaml:"invite_url" env:"INVITE_URL" env-default:"http://localhost:8080/#rsvp"`
}

// Load reads the optional YAML file named by CONFIG_PATH and then the
// environment. Environment values win over the file.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env config: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}
	return cfg
}
