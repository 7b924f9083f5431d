// Package readings holds the live telemetry values exposed to consumers.
//
// The Store is a process-lifetime value owned by the connection manager:
//   - steps, distance, speed, heart rate, two toggle flags
//   - the connection state observable
//   - whole-value replacement on every write
//   - read-only View for consumers, change subscriptions for republishers
package readings
