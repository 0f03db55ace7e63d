// Package config loads and validates Homeline configuration.
//
// Configuration comes from three layers, later layers overriding earlier ones:
//
//  1. Hardcoded defaults (defaultConfig)
//  2. A YAML file (configs/config.yaml by default)
//  3. HOMELINE_* environment variables (deployment overrides and secrets)
//
// Secrets such as the MQTT password and the FCM server key are expected to
// arrive via environment variables rather than the YAML file.
package config
