// Package unix implements a transport layer for the RPC system using Unix
// domain sockets. It provides optimized communication for processes running on
// the same machine.
//
// This package extends the base transport layer with Unix socket-specific connectors
// while inheriting connection pooling, request routing, and error handling from
// the base package.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates Unix socket listeners and accepts connections
//
// The default buffer size is 64 KB. Socket buffer sizes from SocketConf are
// applied to every connection.
package unix
