// Package config holds all configuration for storescan.
//
// Configuration comes from three layers, applied in order:
//
//  1. defaults (NewConfig)
//  2. the .storescan.yaml site-config file, if present
//  3. STORESCAN_* environment variables
//  4. CLI flags (applied by the cmd layer)
//
// Later layers win. The resulting Config value is passed through the
// application by dependency injection; there is no global configuration
// state.
package config
