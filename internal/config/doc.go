// Package config defines configuration for the geomap CLI and server.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (GEOMAP_ prefix), optionally read from a .env file
//   - YAML configuration file
//
// Flags override the environment, which overrides the file.
//
// # Example
//
//	api_key: my-key
//	width: 320
//	height: 240
//	bucket: file:///var/lib/geomap
//	chunk_size: 4KB
//	connect_timeout: 10s
//	skip_if_exists: true
package config
