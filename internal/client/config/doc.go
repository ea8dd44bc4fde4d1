// Package config loads runtime configuration for the storefront CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment, optionally seeded from a dotenv file (-e or -env-file,
//     otherwise ./.env when present).
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   API origin, e.g. http://localhost:5000
//	-d string   path to the local SQLite database
//	-t int      request timeout (seconds)
//	-r float    outbound requests per second, 0 for unlimited
//	-l string   log level: debug, info, warn or error
//
// Environment
//
//	STOREFRONT_API_URL, STOREFRONT_DB, STOREFRONT_TIMEOUT ("10s"),
//	STOREFRONT_RPS, STOREFRONT_LOG_LEVEL
//
// # JSON schema
//
// Durations may be strings like "10s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://localhost:5000",
//	  "database_dsn": "storefront.db",
//	  "request_timeout": "10s",
//	  "requests_per_second": 5,
//	  "log_level": "debug"
//	}
package config
