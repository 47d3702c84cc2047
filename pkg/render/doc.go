// Package render is the reconciliation engine: it lowers an element
// tree into live document nodes and keeps them current through targeted
// updates instead of wholesale re-rendering.
//
// Every mounted subtree owns a reactive.Scope. Signal-valued props and
// text update their node directly through a subscription owned by that
// scope (the fine-grained path). Component bodies re-run only when a
// signal they read during their render phase changes, and the re-run
// replaces exactly that component's subtree. Keyed lists reconcile by
// key and use a longest-increasing-subsequence computation to keep node
// moves minimal on reorder.
package render
