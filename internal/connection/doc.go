// Package connection implements the hub Connection Manager.
//
// The Connection Manager:
//   - Owns at most one websocket to the Home Assistant hub
//   - Answers the auth challenge with a bearer token
//   - Subscribes to the monitored entities once authenticated
//   - Feeds event frames through the protocol codec into the readings Store
//   - Pings on a fixed cadence and forces a reconnect after missed pongs
//   - Reconnects with exponential backoff, forever
//
// All session state lives on one event-loop goroutine. Transport callbacks
// and timers post events into the loop; events from a handle or timer that
// has since been torn down are dropped.
package connection
