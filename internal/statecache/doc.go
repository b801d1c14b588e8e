// Package statecache provides the Redis-backed hot state for the ingest
// pipeline.
//
// Every inbound message consults the cache before touching SQLite:
//   - home membership sets answer "does this device belong to this home"
//   - org mappings answer "which organisation owns this home"
//   - last-payload snapshots give the rule engine its previous state
//   - execution markers gate ONCE/RECURRENT/SPECIFIC rule policies
//
// Membership and org lookups are read-through: a miss loads from the
// repositories and populates the cache, so a cold cache self-heals under
// traffic. Rebuild repopulates everything eagerly and is run periodically
// by the maintenance scheduler.
//
// # Thread Safety
//
// Cache is safe for concurrent use; all state lives in Redis.
package statecache
