// Package diag defines the diagnostics boundary of the rendering core.
//
// The core never logs or counts anything itself; it emits structured
// events to a Sink and moves on. What happens to an event (logging,
// metrics, dropping it on the floor) is entirely the sink's business.
package diag
