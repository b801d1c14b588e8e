// Package config loads and validates the Pulse Core configuration.
//
// Configuration comes from a single YAML file, with a small set of
// environment variable overrides on top for values that vary per
// deployment. Defaults are applied before the file is read, so a minimal
// file only needs to state what differs from them, and Validate rejects
// anything the service cannot start with (missing service ID, bad ports,
// out-of-range QoS).
//
// Secrets such as broker passwords and InfluxDB tokens should arrive via
// environment variables rather than the file, and the file itself should
// carry restricted permissions (0600). Loading happens once at startup;
// the resulting Config is treated as immutable afterwards.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Service.ID)
package config
