package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Remote    RemoteConfig
	WebSocket WebSocketConfig
	Livesync  LivesyncConfig
	CORS      CORSConfig
}

// ServerConfig is the loopback API the UI layer talks to.
type ServerConfig struct {
	Port string
	Host string
	Env  string
}

// DatabaseConfig points at the local CouchDB-compatible store holding the
// working dictionary, the ancestor snapshot, and the sync profile.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// RemoteConfig describes the shared remote dictionary store.
type RemoteConfig struct {
	BaseURL      string
	Timeout      time.Duration
	PollInterval time.Duration
	PushURL      string
}

type WebSocketConfig struct {
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration
	MaxClients int
}

// LivesyncConfig bounds the push channel's reconnect behavior.
type LivesyncConfig struct {
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

func Load() (*Config, error) {
	godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "7341"),
			Host: getEnv("HOST", "127.0.0.1"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5984"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "lexisync"),
		},
		Remote: RemoteConfig{
			BaseURL:      getEnv("REMOTE_BASE_URL", "https://sync.lexisync.dev"),
			Timeout:      getEnvAsDuration("REMOTE_TIMEOUT", 15*time.Second),
			PollInterval: getEnvAsDuration("AUTH_POLL_INTERVAL", 5*time.Second),
			PushURL:      getEnv("REMOTE_PUSH_URL", "wss://sync.lexisync.dev/ws"),
		},
		WebSocket: WebSocketConfig{
			WriteWait:  10 * time.Second,
			PongWait:   60 * time.Second,
			PingPeriod: 54 * time.Second,
			MaxClients: getEnvAsInt("WS_MAX_CLIENTS", 8),
		},
		Livesync: LivesyncConfig{
			MaxRetries:  getEnvAsInt("LIVESYNC_MAX_RETRIES", 8),
			BaseBackoff: getEnvAsDuration("LIVESYNC_BASE_BACKOFF", 2*time.Second),
			MaxBackoff:  getEnvAsDuration("LIVESYNC_MAX_BACKOFF", time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
