// Package config loads contrail's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/contrail/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or blank, use defaults
//
// # Fields
//
//	endpoint            = "127.0.0.1:8080"   # host:port, http(s):// or ws(s)://
//	secure              = false              # force wss
//	reconnect_delay_ms  = 2000
//	capacity            = 1000               # entries kept in memory
//	export_dir          = "."
//	log_file            = "~/.local/state/contrail/contrail.log"  # "-" for stderr
//	log_level           = "info"
//	log_format          = "text"             # or "json"
//
// Paths beginning with ~ are expanded to the user's home directory and made
// absolute. Command-line flags override file values; that merge happens in
// cmd/contrail.
//
// # Errors
//
// A missing file is not an error. An unreadable file, invalid TOML, or an
// unsupported log_level/log_format is, and Load returns it wrapped with
// context ("open config", "parse config", ...).
package config
