// Package tcp implements TCP socket-based transport for the RPC system.
// It provides concrete implementations of the base package's connector
// interfaces for TCP connections.
//
// This package builds on the base package's transport functionality, inheriting its
// connection pooling, buffer reuse, and request routing. See the base package
// documentation for details on the underlying framing.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector
//
//   - serverConnector: TCP-specific implementation of base.IServerConnector
//
// Both sides apply the TCPConf and SocketConf settings of their configuration
// (TCP_NODELAY, keep-alive, linger, socket buffer sizes) to every connection.
// The default server buffer size is 512 KB.
package tcp
