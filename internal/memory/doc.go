// Package memory provides memory monitoring, backpressure, and pressure
// signal fan-out for the album pipeline.
//
// The Monitor periodically samples heap usage against a soft limit
// (explicit or GOMEMLIMIT). Crossing the high water mark raises one
// pressure signal per excursion; crossing the critical mark additionally
// pauses processing until usage recovers. External events, such as OS
// signals, are injected with SignalPressure and reach the same
// subscribers.
//
// Subscribers are the batch scheduler (halves its batch size) and the
// image caches (clear on pressure). Delivery is synchronous on the
// monitor goroutine, so callbacks must be cheap.
//
// The package also classifies the host into a memory tier from total
// physical RAM, which the scheduler uses to pick its initial batch
// size.
package memory
