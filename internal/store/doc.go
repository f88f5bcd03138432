// Package store provides SQLite-backed storage for the conversion run
// ledger and for flat tables written in the SQLite format.
//
// # Ledger
//
// One conversions row per convert invocation (or batch job). A row is
// inserted as running by BeginConversion and moved to ok or failed
// exactly once. Listing is deterministic: ORDER BY seq ASC, id ASC (binary collation).
//
// # Flat tables
//
// A flat table lives in its own database file with a single electrons
// table, one column per flat branch plus seq. Rows are inserted inside a
// single transaction committed on Close.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
