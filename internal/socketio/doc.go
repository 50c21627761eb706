// Package socketio is a minimal socket.io client (protocol v5 over
// Engine.IO v4, websocket transport only) for talking to the Desktop
// backend.
//
// Only the pieces the televisor needs are implemented:
//
//   - the Engine.IO open handshake and ping/pong keepalive
//   - CONNECT to the default namespace
//   - EVENT packets with acknowledgement ids, and the matching ACK replies
//
// Binary packets, polling transport, and non-default namespaces are not
// supported.
//
// A Client owns one websocket at a time. When the socket drops, calls
// waiting for an acknowledgement fail with ErrDisconnected and the client
// reconnects in the background with capped exponential backoff, the same
// way socket.io-client does. Calls made while reconnecting fail fast with
// ErrNotConnected.
package socketio
