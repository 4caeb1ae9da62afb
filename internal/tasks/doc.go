// Package tasks orchestrates the daily ingestion run.
//
// [Pipeline.Run] executes one complete fetch -> resolve -> reconcile ->
// persist pass: team pages are scraped and resolved through a bounded worker
// pool (both stages are I/O bound), while reconciliation and persistence run
// on the collecting goroutine so each player's read-then-write of its current
// entry is serialized by construction.
//
// Failure isolation follows the run taxonomy: a team that cannot be scraped
// is skipped with a warning, an unresolved catalog lookup degrades that
// record's enrichment only, and a per-player persistence conflict skips that
// player. Only database connectivity and total source failure abort a run.
package tasks
