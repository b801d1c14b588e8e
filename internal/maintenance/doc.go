// Package maintenance runs the scheduled housekeeping jobs: pruning aged
// telemetry history rows and rebuilding the cache membership sets from the
// persistent store. Schedules are cron expressions with a seconds field.
package maintenance
