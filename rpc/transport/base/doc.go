// Package base implements the framed request/response protocol shared by the
// tcp and unix transports. The transports only provide a connector that dials,
// listens and tunes the sockets; everything else lives here.
//
// Frame format (big endian):
//
//	8 bytes shardId | 8 bytes requestID | 4 bytes length | payload
//
// Frames larger than 256 MiB are rejected on both sides.
//
// Client:
//
//   - Keeps ConnectionsPerEndpoint connections per endpoint and picks one per
//     request round-robin.
//   - Correlates responses by request ID, so many requests can be in flight on
//     one connection.
//   - Retries failed attempts RetryCount times with exponential backoff
//     (50ms, doubled per attempt, +-10% jitter).
//   - A reader goroutine per connection restores broken connections and fails
//     the requests that were waiting on them.
//
// Server:
//
//   - Accepts connections and processes up to WorkersPerConn requests of a
//     connection concurrently. Read buffers are pooled.
//   - Idle connections are closed after TimeoutSecond.
//   - Close stops the listener and closes all open connections.
//
// Failed attempts, failed requests, reconnects and accepted connections are
// counted in the darray_transport_* VictoriaMetrics counters.
package base
