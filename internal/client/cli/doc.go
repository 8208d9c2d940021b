// Package cli is the bizsync command-line client.
//
// It wires configuration, the local cache, the sync services and an
// interactive REPL. While the REPL runs, an online watcher pings the server
// and the outbox flusher replays queued writes; both run in an errgroup
// tied to the REPL's lifetime. One-shot subcommands (flush, pending,
// failed, reset) are exposed through cobra.
package cli
