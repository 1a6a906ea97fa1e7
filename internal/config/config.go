// Package config handles editor server configuration loading and management.
package config

import "time"

// Config holds all editor settings.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Scene   SceneConfig   `yaml:"scene"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	CORSOrigin      string        `yaml:"cors_origin"`
	JWTSecret       string        `yaml:"jwt_secret"` // empty disables auth
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// EngineConfig points at the external render engine.
type EngineConfig struct {
	Binary  string        `yaml:"binary"`
	Args    []string      `yaml:"args"`
	Timeout time.Duration `yaml:"timeout"` // 0 means no limit
}

// SceneConfig selects the document the editor starts with.
type SceneConfig struct {
	SeedFile string `yaml:"seed_file"`
	Watch    bool   `yaml:"watch"`
	SaveFile string `yaml:"save_file"`
}

// StorageConfig selects the scene library backend.
type StorageConfig struct {
	Backend    string `yaml:"backend"` // memory or valkey
	ValkeyAddr string `yaml:"valkey_addr"`
	KeyPrefix  string `yaml:"key_prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Storage backends.
const (
	BackendMemory = "memory"
	BackendValkey = "valkey"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          "127.0.0.1:8080",
			CORSOrigin:      "http://127.0.0.1:5173",
			ShutdownTimeout: 5 * time.Second,
		},
		Engine: EngineConfig{
			Binary: "webray",
		},
		Scene: SceneConfig{
			SaveFile: "scene.json",
		},
		Storage: StorageConfig{
			Backend:    BackendMemory,
			ValkeyAddr: "127.0.0.1:6379",
			KeyPrefix:  "webray:library:",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
