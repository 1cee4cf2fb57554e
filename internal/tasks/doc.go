// package tasks implements long-running library operations.
//
// The core abstraction is [Exporter], which resolves many uris to tracks and writes one
// export file per uri through a rate-limited worker pool. Operations emit progress updates
// via channels for non-blocking status reporting to CLI/UI layers.
package tasks
