// Package config loads server configuration from an optional TOML file and
// environment variables. Environment values override the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ConfigPathEnv names the variable holding the optional TOML file path.
const ConfigPathEnv = "MOCKVIEW_CONFIG"

type Config struct {
	Server   Server   `toml:"server"`
	Log      Log      `toml:"log"`
	Auth     Auth     `toml:"auth"`
	Postgres Postgres `toml:"postgres"`
	Redis    Redis    `toml:"redis"`
	Kafka    Kafka    `toml:"kafka"`
	VertexAI VertexAI `toml:"vertex_ai"`
	Proctor  Proctor  `toml:"proctor"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `toml:"addr"`
	RequestTimeout  time.Duration `toml:"request_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Auth struct {
	JWTSigningKey string `toml:"jwt_signing_key"`
	Issuer        string `toml:"issuer"`
	Audience      string `toml:"audience"`
}

// Postgres is optional; an empty URL selects the in-memory interview store.
type Postgres struct {
	URL      string `toml:"url"`
	MaxConns int32  `toml:"max_conns"`
}

// Redis is optional; an empty URL keeps session snapshots in memory.
type Redis struct {
	URL          string        `toml:"url"`
	PoolSize     int           `toml:"pool_size"`
	MinIdleConns int           `toml:"min_idle_conns"`
	DialTimeout  time.Duration `toml:"dial_timeout"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	SnapshotTTL  time.Duration `toml:"snapshot_ttl"`
}

// Kafka is optional; without brokers session events are only logged.
type Kafka struct {
	Brokers           []string      `toml:"brokers"`
	Topic             string        `toml:"topic"`
	Partitions        int32         `toml:"partitions"`
	ReplicationFactor int16         `toml:"replication_factor"`
	BatchSize         int           `toml:"batch_size"`
	FlushInterval     time.Duration `toml:"flush_interval"`
}

// VertexAI is optional; without a project the AI endpoints answer 503.
type VertexAI struct {
	Project         string        `toml:"project"`
	Location        string        `toml:"location"`
	Model           string        `toml:"model"`
	CredentialsFile string        `toml:"credentials_file"`
	Timeout         time.Duration `toml:"timeout"`
}

// Proctor holds the exam tunables. Zero values fall back to the engine defaults.
type Proctor struct {
	InitialBudget      int           `toml:"initial_budget"`
	Cooldown           time.Duration `toml:"cooldown"`
	FullscreenGrace    time.Duration `toml:"fullscreen_grace"`
	FullscreenPoll     time.Duration `toml:"fullscreen_poll"`
	ExamDuration       time.Duration `toml:"exam_duration"`
	DetectionInterval  time.Duration `toml:"detection_interval"`
	CalibrationFrames  int           `toml:"calibration_frames"`
	SubmitTimeout      time.Duration `toml:"submit_timeout"`
	MaxExamDuration    time.Duration `toml:"max_exam_duration"`
	AllowClientMinutes bool          `toml:"allow_client_minutes"`
}

func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Log: Log{Level: "info", Format: "json"},
		Auth: Auth{
			// Use a default for development - should be overridden in production
			JWTSigningKey: "dev-secret-key-change-in-production",
			Issuer:        "mockview",
			Audience:      "mockview-api",
		},
		Postgres: Postgres{MaxConns: 10},
		Redis: Redis{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			SnapshotTTL:  24 * time.Hour,
		},
		Kafka: Kafka{
			Topic:             "mockview.proctor.events",
			Partitions:        3,
			ReplicationFactor: 1,
			BatchSize:         100,
			FlushInterval:     time.Second,
		},
		VertexAI: VertexAI{
			Location: "us-central1",
			Model:    "gemini-1.5-flash",
			Timeout:  60 * time.Second,
		},
		Proctor: Proctor{
			InitialBudget:     10,
			Cooldown:          3 * time.Second,
			FullscreenGrace:   10 * time.Second,
			FullscreenPoll:    time.Second,
			ExamDuration:      10 * time.Minute,
			DetectionInterval: 100 * time.Millisecond,
			CalibrationFrames: 30,
			SubmitTimeout:     time.Minute,
			MaxExamDuration:   time.Hour,
		},
	}
}

// FromEnv loads the file named by MOCKVIEW_CONFIG (if set) and applies
// environment overrides so main stays lean.
func FromEnv() (Config, error) {
	return Load(os.Getenv(ConfigPathEnv), os.Getenv)
}

// Load reads path (skipped when empty), applies overrides from getenv and validates.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("MOCKVIEW_ADDR", &c.Server.Addr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("JWT_SIGNING_KEY", &c.Auth.JWTSigningKey)
	str("DATABASE_URL", &c.Postgres.URL)
	str("REDIS_URL", &c.Redis.URL)
	str("KAFKA_TOPIC", &c.Kafka.Topic)
	str("VERTEX_PROJECT", &c.VertexAI.Project)
	str("VERTEX_LOCATION", &c.VertexAI.Location)
	str("VERTEX_MODEL", &c.VertexAI.Model)
	str("GOOGLE_APPLICATION_CREDENTIALS", &c.VertexAI.CredentialsFile)

	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
	}
	if v := getenv("PROCTOR_INITIAL_BUDGET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PROCTOR_INITIAL_BUDGET: %w", err)
		}
		c.Proctor.InitialBudget = n
	}
	if v := getenv("PROCTOR_EXAM_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PROCTOR_EXAM_DURATION: %w", err)
		}
		c.Proctor.ExamDuration = d
	}
	return nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not supported", c.Log.Level))
	}
	if c.Auth.JWTSigningKey == "" {
		errs = append(errs, errors.New("auth.jwt_signing_key is required"))
	}
	if c.Proctor.InitialBudget <= 0 {
		errs = append(errs, errors.New("proctor.initial_budget must be positive"))
	}
	if c.Proctor.Cooldown < 0 || c.Proctor.FullscreenGrace < 0 || c.Proctor.FullscreenPoll < 0 {
		errs = append(errs, errors.New("proctor durations must not be negative"))
	}
	if c.Proctor.ExamDuration <= 0 {
		errs = append(errs, errors.New("proctor.exam_duration must be positive"))
	}
	if c.Proctor.MaxExamDuration > 0 && c.Proctor.ExamDuration > c.Proctor.MaxExamDuration {
		errs = append(errs, errors.New("proctor.exam_duration exceeds proctor.max_exam_duration"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	return errors.Join(errs...)
}
