// Package outbox persists the client's write-ahead intent log (the
// sync_queue table).
//
// Every local mutation is appended as a PENDING entry before it is sent to
// the server. Entries move to SYNCED once the server acknowledges them or
// to FAILED when retries are exhausted; FAILED entries can be requeued by
// the user. SQLiteRepository works over a dbx.DBTX so it can join a
// caller's transaction.
package outbox
