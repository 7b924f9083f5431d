// Package protocol implements the Home Assistant websocket wire format.
//
// Outbound frames: auth, subscribe_entities, ping.
// Inbound frames: auth_required, auth_ok, auth_invalid, pong, event.
//
// Event frames carry entity state in one of two envelopes:
//   - snapshot ("a"): entity id -> {"s": value}
//   - delta    ("c"): entity id -> {"+": {"s": value}}
//
// Both envelopes are applied through the same entity rule table, so adding a
// sensor means adding one Rule.
package protocol
