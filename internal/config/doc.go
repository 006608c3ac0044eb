// Package config defines the recofeed configuration.
//
//   - spec.go: Config struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (validator/v10 tags plus cross-field checks)
//   - sanitize.go: Masking of secrets for logging and `config show`
//   - load.go: Loading through internal/infra/confloader
//
// Sources, highest priority first: flags, RECOFEED_ environment variables,
// the YAML file, Default().
package config
