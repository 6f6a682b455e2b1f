// Package config provides application configuration management.
//
// # Overview
//
// Configuration is assembled from defaults, an optional YAML file, and
// PROTO_REGULATE_* environment variables, in that order; later sources win.
//
// # Configuration Structure
//
// Engine settings:
//
//	PROTO_REGULATE_MAX_WORKERS="4"
//	PROTO_REGULATE_CACHE_SIZE="1024"
//	PROTO_REGULATE_CACHE_TTL="15m"
//
// Output settings:
//
//	PROTO_REGULATE_OUTPUT_DIR="/var/proto/canonical"
//	PROTO_REGULATE_OVERWRITE="true"
//
// Logging settings:
//
//	PROTO_REGULATE_LOG_LEVEL="info"  # debug, info, warn, error
//	PROTO_REGULATE_LOG_FORMAT="text" # text, json
//
// The same keys nest under engine/output/logging in the YAML file:
//
//	engine:
//	  max_workers: 4
//	  cache_ttl: 15m
//	logging:
//	  level: debug
//
// # Usage Example
//
//	cfg, err := config.LoadConfig("regulate.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	engine := regulate.NewEngine(cfg.RegulateConfig())
//
// # Related Packages
//
//   - pkg/regulate: Uses engine configuration
//   - pkg/cli: Loads configuration for every command
package config
