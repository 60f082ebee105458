// Package imagecache holds decoded images in two bounded LRU tiers, a
// fast thumbnail tier and a larger high-quality tier. Entries are
// accounted at width*height*4 bytes and evicted by total cost and
// count. Requests for the same asset follow last-request-wins: a new
// request cancels the in-flight decode and exactly one final image is
// delivered. Both tiers clear fully on memory pressure.
package imagecache
