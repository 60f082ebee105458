// Package cluster groups asset metadata into temporally (and optionally
// spatially) contiguous event clusters. A cluster is only emitted when it
// holds at least MinSize assets spanning at least MinDuration; partial runs
// are silently dropped.
package cluster
