// Package localstore is the client's durable object store. Every entity
// table from the records registry is a SQLite table holding one JSON
// document per key; the store survives restarts and acts as both the
// read cache and the offline fallback.
//
// All operations return errors from the underlying database. Callers
// decide whether a local failure is fatal.
package localstore
