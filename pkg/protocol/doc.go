// Package protocol defines the binary wire format between a live
// session and its thin client.
//
// The server ships document mutation ops (set-text, set-attr, insert,
// remove, move) produced by the renderer; the client ships back user
// events (node ID, event type, value). All messages travel inside
// length-prefixed frames:
//
//	┌────────────┬────────────┬──────────────────────────┐
//	│ Frame Type │ Flags      │ Payload Length           │
//	│ (1 byte)   │ (1 byte)   │ (2 bytes, big-endian)    │
//	└────────────┴────────────┴──────────────────────────┘
//	│ Payload (variable)                                 │
//	└────────────────────────────────────────────────────┘
//
// Payloads use varint-based encoding: unsigned varints for counts and
// lengths, ZigZag varints for signed values, length-prefixed UTF-8 for
// strings. Decoders validate every length against the remaining buffer
// and an allocation ceiling, so a malicious peer cannot force large
// allocations with a forged prefix.
package protocol
