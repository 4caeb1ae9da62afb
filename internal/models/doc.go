// Package models defines the data model for the walk-up song pipeline.
//
// The package contains two categories of types:
//
// 1. Ephemeral records produced fresh each run:
//   - [WalkupRecord] : A (team, player, song) observation scraped from a team page
//   - [CatalogMatch] : The best-effort result of a catalog lookup
//   - [ResolvedSong] : A WalkupRecord enriched with its CatalogMatch
//
// 2. Persisted entities:
//   - [SongEntry] : A row in walk_up_songs, at most one current per player
//   - [ChangeEvent] : An immutable row in song_change_events recording a transition
//
// Reconciliation between the two is expressed as a [Decision] carrying an
// [Action] (no-op, insert, or supersede) plus the rows it touches.
package models
