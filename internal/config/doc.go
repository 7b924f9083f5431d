// Package config loads the stepfeed YAML configuration.
//
// ${VAR} references are expanded from the environment before parsing, so
// secrets and per-machine hub addresses can live in a .env file.
package config
