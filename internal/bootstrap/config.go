package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the relay. Values come from defaults, then the optional
// YAML file named by CONFIG_FILE, then environment variables (a .env file is loaded first).
type Config struct {
	ServerPort         string        `yaml:"server_port"`
	AppEnv             string        `yaml:"app_env"`
	LogLevel           string        `yaml:"log_level"`
	CORSAllowedOrigin  string        `yaml:"cors_allowed_origin"`
	WSMaxMessageSize   int64         `yaml:"ws_max_message_size"`
	WSSendBuffer       int           `yaml:"ws_send_buffer"`
	BcryptCost         int           `yaml:"bcrypt_cost"`
	DefaultMaxUsers    int           `yaml:"default_max_users"`
	RoomIdleTTL        time.Duration `yaml:"room_idle_ttl"`
	PrivateRoomIdleTTL time.Duration `yaml:"private_room_idle_ttl"`
	JanitorSchedule    string        `yaml:"janitor_schedule"`
	MetricsEnabled     bool          `yaml:"metrics_enabled"`
}

func defaultConfig() *Config {
	return &Config{
		ServerPort:       "8080",
		AppEnv:           "development",
		LogLevel:         "info",
		WSMaxMessageSize: 64 * 1024,
		WSSendBuffer:     256,
		BcryptCost:       bcrypt.DefaultCost,
		DefaultMaxUsers:  10,
		RoomIdleTTL:      30 * time.Minute,
		JanitorSchedule:  "@every 1m",
		MetricsEnabled:   true,
	}
}

// LoadConfig resolves the configuration. Invalid environment values are logged and ignored.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := defaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	envString("SERVER_PORT", &cfg.ServerPort)
	envString("APP_ENV", &cfg.AppEnv)
	envString("LOG_LEVEL", &cfg.LogLevel)
	envString("CORS_ALLOWED_ORIGIN", &cfg.CORSAllowedOrigin)
	envInt64("WS_MAX_MESSAGE_SIZE", &cfg.WSMaxMessageSize)
	envInt("WS_SEND_BUFFER", &cfg.WSSendBuffer)
	envInt("BCRYPT_COST", &cfg.BcryptCost)
	envInt("DEFAULT_MAX_USERS", &cfg.DefaultMaxUsers)
	envDuration("ROOM_IDLE_TTL", &cfg.RoomIdleTTL)
	envDuration("PRIVATE_ROOM_IDLE_TTL", &cfg.PrivateRoomIdleTTL)
	envString("JANITOR_SCHEDULE", &cfg.JanitorSchedule)
	envBool("METRICS_ENABLED", &cfg.MetricsEnabled)

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	if cfg.DefaultMaxUsers < 1 {
		logrus.Warnf("Invalid DEFAULT_MAX_USERS %d, using 10", cfg.DefaultMaxUsers)
		cfg.DefaultMaxUsers = 10
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		logrus.Warnf("Invalid BCRYPT_COST %d, using %d", cfg.BcryptCost, bcrypt.DefaultCost)
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.ServerPort == "" {
		return nil, fmt.Errorf("server port must not be empty")
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.Warnf("Invalid %s '%s', keeping %d", key, v, *dst)
		return
	}
	*dst = n
}

func envInt64(key string, dst *int64) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		logrus.Warnf("Invalid %s '%s', keeping %d", key, v, *dst)
		return
	}
	*dst = n
}

func envDuration(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		logrus.Warnf("Invalid %s '%s', keeping %s", key, v, *dst)
		return
	}
	*dst = d
}

func envBool(key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.Warnf("Invalid %s '%s', keeping %t", key, v, *dst)
		return
	}
	*dst = b
}
