// Package scheduler drives the smart album pipeline over the asset
// library in memory-aware batches.
//
// A run moves Idle -> Running -> Completed, Cancelled or Failed, with a
// single-flight guard so two runs never overlap. Batch size starts from
// the host's memory tier and halves on every pressure signal, which
// also pauses the queue briefly and clears the image caches. Each batch
// is clustered, classified, scored, titled, and persisted in one
// transaction; a failed batch is logged and skipped while the run
// continues. Cancellation is checked between batches and keeps the
// batches already saved.
package scheduler
