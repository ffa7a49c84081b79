// Package sqlite implements the run ledger on an embedded SQLite
// database. The ledger is append-only audit data, so the schema is a
// single table created on open.
package sqlite
