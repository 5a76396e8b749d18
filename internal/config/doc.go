// Package config loads the bouyomi CLI configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/bouyomi/config.toml (default)
//  3. If the config file doesn't exist, start from built-in defaults
//  4. Apply BOUYOMI_* environment variables on top
//  5. Blank string fields fall back to defaults, then the result is validated
//
// # TOML Format
//
//	transport   = "socket"            # socket | http
//	socket_addr = "127.0.0.1:50001"
//	http_addr   = "127.0.0.1:50080"
//	timeout_ms  = 3000                # 0 disables the per-call timeout
//	poll_ms     = 1000                # monitor refresh interval
//	log_level   = "info"              # debug | info | warn | error
//	log_file    = "~/.local/state/bouyomi/bouyomi.log"
//
// Every field is optional. Tilde expansion is performed on log_file.
//
// # Environment
//
// Each field can be overridden with the upper-cased key and a BOUYOMI_ prefix, for example
// BOUYOMI_TRANSPORT=http or BOUYOMI_SOCKET_ADDR=192.168.1.9:50001. Command line flags in
// cmd/bouyomi take precedence over both.
package config
