// Package config handles configuration loading and management for locustgen.
//
// It provides functionality for:
//   - Loading configuration from .locustgen.yaml or locustgen.yaml files
//   - Default configuration values
//   - Merging command line overrides over file values
package config
