// Package config handles loading and validating the charge box core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (CHARGEBOX_*)
//   - Validation of required fields
//   - Default value handling
//
// Sensitive values (MQTT passwords, InfluxDB tokens) should be set via
// environment variables rather than committed to the config file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	timeout := cfg.GetRequestTimeout()
package config
