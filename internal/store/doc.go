// Package store provides the SQLite-backed run ledger.
//
// A run is one invocation of a suite. Each case the harness finishes is
// appended to the run as a case result:
//   - runs: suite, variant, seed, start/finish time and status counts
//   - case_results: one row per case, keyed by (run_id, seq)
//
// Case results carry the content-addressed case key from internal/caseid, so
// the history of one case can be followed across runs even when the catalog
// is reordered.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The store keeps a single open connection, so parallel suite runs record
// through it one write at a time.
package store
