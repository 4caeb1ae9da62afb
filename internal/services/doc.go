// Package services defines the music catalog boundary of the pipeline.
//
// The [Catalog] interface abstracts an external music metadata service that
// can resolve a (title, artist) pair to a stable identifier and a
// content-advisory flag. [SpotifyCatalog] implements it against the Spotify
// Web API using the client-credentials flow.
//
// [Resolver] sits above the catalog: it rate-limits lookups, treats misses as
// valid unresolved results, and degrades the whole run to unresolved when the
// catalog cannot authenticate, so enrichment problems never abort a scrape.
package services
