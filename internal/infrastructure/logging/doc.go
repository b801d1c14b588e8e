// Package logging provides structured logging for Pulse Core.
//
// It is a thin wrapper over the standard library's log/slog that bakes
// in the conventions every other package relies on: a service/version
// attribute on every record, config-driven level and format selection,
// and a Default() logger usable before configuration is loaded.
//
// # Configuration
//
// The logging section of config.yaml drives construction:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	log := logging.New(cfg.Logging, "1.0.0")
//	log.Info("gateway subscribed", "topic", topic)
//	log.Error("dispatch failed", "rule_id", ruleID, "error", err)
//
// Subsystems may tag themselves once with With:
//
//	qlog := log.With("component", "queue")
//
// # Security
//
// Never log secrets, tokens, or passwords. Truncate identifying material
// where a prefix is enough for correlation.
package logging
