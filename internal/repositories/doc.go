// Package repositories provides the persistence gateway for walk-up song
// state and change history.
//
// [SongRepository] owns the walk_up_songs table: it loads the per-player
// current view once per run and applies reconciliation decisions, each
// player's decision in its own transaction so the close-old/open-new/
// log-change triple commits together or not at all. Inserts are upserts on
// UNIQUE(team, player, song_title), which makes retried runs idempotent.
//
// [ChangeEventRepository] reads the immutable song_change_events log; writes
// to it happen only inside SongRepository.Apply transactions.
//
// Queries are written with ? placeholders and rebound per driver, so the same
// code runs against sqlite (tests, local runs) and postgres (production).
package repositories
