// Package library defines the media asset model, the Provider interface the
// pipeline consumes assets through, and a filesystem-backed implementation
// with lightweight change detection. It also houses the metadata extractor
// that turns raw asset handles into the records the clusterer operates on.
package library
