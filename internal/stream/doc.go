// Package stream multiplexes per-job live progress connections.
//
// Each submitted job gets at most one open subscription. Events arriving on a
// subscription are posted to the owning event loop, which patches the tree
// item and appends log lines. A terminal status closes the subscription;
// transport failures reconnect with capped exponential back-off.
package stream
