// Package store persists smart albums in SQLite.
//
// The schema is normalized across three tables: albums, album_tags and
// album_assets, with tag and asset order preserved by position columns.
// A small metadata key-value table carries pipeline bookkeeping such as
// the library signature used for cache invalidation.
//
// Two write modes exist. ReplaceAll clears and rewrites the whole set
// in one transaction and backs explicit regeneration. AppendBatch
// writes one batch per transaction so a failing batch rolls back alone,
// leaving albums from earlier batches untouched by the failure.
//
// Reads never fail on stale data: when a library resolver is installed,
// asset references that no longer resolve are pruned from results and
// dangling thumbnails are repaired to the first surviving member.
package store
