// Package dom defines the document node API the rendering core renders
// against, plus an in-memory implementation of it.
//
// The core treats the document as an opaque platform capability: node
// creation, attribute access, child insertion and removal, and event
// listener attachment. The in-memory document serves server-side
// sessions and tests; it assigns every node a stable ID and can record
// each mutation as an Op, which is what the live transport ships to a
// thin client.
//
// Documents are owned by a single session goroutine and are not safe
// for concurrent mutation.
package dom
