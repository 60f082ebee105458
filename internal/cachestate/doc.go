// Package cachestate tracks whether persisted albums are still worth
// serving, keyed on a cheap library signature of asset count and newest
// capture time. Validity expires 24 hours after the last pipeline run
// and flips immediately when a library change notification lands.
package cachestate
