// Package live runs mounted trees over WebSocket connections.
//
// Each connected client gets a Session owning its own document, render
// mount, and single-goroutine event loop. Client events and dispatched
// callbacks are serialized onto that loop; after each unit of work the
// session drains the recorded document mutations and ships them to the
// client as a binary ops frame. Server wires the sessions into an HTTP
// server with a WebSocket endpoint, Prometheus metrics, and a health
// check.
package live
