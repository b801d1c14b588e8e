// Package rules implements the automation rule engine.
//
// Rules are stored relationally (rules, conditions, results) and evaluated
// against each accepted telemetry message. Evaluation runs in three
// stages: the Scheduler checks execution eligibility per policy (ONCE,
// RECURRENT, SPECIFIC) against cache-resident markers, conditions are
// matched with type-aware comparison, and matching rules hand their
// results to a Dispatcher.
//
// The eligibility check and the marker write are not mutually exclusive
// across processes; near-simultaneous messages can double-fire a rule.
// The window is narrow and the consequence is at most a duplicate command
// or notification, so no lock is taken.
package rules
