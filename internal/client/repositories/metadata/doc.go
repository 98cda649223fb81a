// Package metadata is the key/value persistence layer of the local client
// database. The token store keeps the session credentials here so they
// survive process restarts.
//
// GetMany leaves missing keys out of the result; callers decide whether
// absence is an error. SQLiteRepository works over dbx.DBTX, so it can be bound to a
// *sql.DB or to a *sql.Tx when several keys must change atomically.
package metadata
