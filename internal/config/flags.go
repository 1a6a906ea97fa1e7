package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagListen  = flag.String("listen", "", "HTTP listen address")
	flagEngine  = flag.String("engine", "", "Path to the render engine binary")
	flagScene   = flag.String("scene", "", "Scene file to open at startup")
	flagWatch   = flag.Bool("watch", false, "Reload the scene file when it changes")
	flagStorage = flag.String("storage", "", "Scene library backend (memory or valkey)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagListen != "" {
		cfg.Server.Listen = *flagListen
	}
	if *flagEngine != "" {
		cfg.Engine.Binary = *flagEngine
	}
	if *flagScene != "" {
		cfg.Scene.SeedFile = *flagScene
	}
	if *flagWatch {
		cfg.Scene.Watch = true
	}
	if *flagStorage != "" {
		cfg.Storage.Backend = *flagStorage
	}
}
