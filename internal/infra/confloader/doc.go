// Package confloader loads configuration into koanf-tagged structs.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables
//  3. Configuration file (YAML)
//  4. Whatever the target already holds (its defaults)
//
// Environment variables use a double underscore between path segments so
// that single underscores inside key names survive:
//
//	RECOFEED_REMOTE__BASE_URL=https://example.org -> remote.base_url
//
// Watcher reports writes to a configuration file so a long-running process
// can reload it.
package confloader
