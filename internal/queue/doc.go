// Package queue implements the durable delayed-job queue backing debounced
// notification resends.
//
// Jobs live in a Redis sorted set keyed queue:delayed, scored by fire time
// (epoch seconds). Submit adds a job with a delay; the Consumer polls for
// due jobs and hands them to an injected handler on a fixed-size worker
// pool. A job is claimed by removing it from the set before processing, so
// concurrent consumers never process the same job twice. Jobs carry no
// cancellation: a job for a since-deactivated rule still fires, and the
// handler's eligibility checks make it a no-op.
package queue
