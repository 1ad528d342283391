// Package config provides configuration loading and validation for shelfd.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (SHELFD_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with SHELFD_ prefix:
//   - server.port → SHELFD_SERVER_PORT
//   - database.type → SHELFD_DATABASE_TYPE
//   - auth.read → SHELFD_AUTH_READ
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: host and port for the HTTP listener
//   - Catalog: service behavior such as allowing duplicate book names
//   - Database: type, DSN, and table names
//   - Auth: access control (read/write) and the Basic auth realm
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level and format
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Auth read/write must be public or private
//   - Log level must be debug, info, warn, or error
//   - Log format must be text or json
package config
