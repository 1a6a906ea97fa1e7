package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WEBRAY_"

// loadDotEnv adds variables from path to the environment. Variables that are
// already set win. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// applyEnv applies WEBRAY_* overrides to the config.
func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	str("LISTEN", &cfg.Server.Listen)
	str("CORS_ORIGIN", &cfg.Server.CORSOrigin)
	str("JWT_SECRET", &cfg.Server.JWTSecret)
	str("ENGINE_BINARY", &cfg.Engine.Binary)
	str("SCENE_FILE", &cfg.Scene.SeedFile)
	str("SAVE_FILE", &cfg.Scene.SaveFile)
	str("STORAGE_BACKEND", &cfg.Storage.Backend)
	str("VALKEY_ADDR", &cfg.Storage.ValkeyAddr)
	str("VALKEY_PREFIX", &cfg.Storage.KeyPrefix)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FILE", &cfg.Logging.LogFile)

	if v, ok := os.LookupEnv(EnvPrefix + "ENGINE_ARGS"); ok {
		cfg.Engine.Args = strings.Fields(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "ENGINE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sENGINE_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.Engine.Timeout = d
	}
	if v, ok := os.LookupEnv(EnvPrefix + "SCENE_WATCH"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSCENE_WATCH: %w", EnvPrefix, err)
		}
		cfg.Scene.Watch = b
	}
	return nil
}
