// Package hub is the node transport: every handheld holding an open
// WebSocket is a reachable node. The hub lists nodes, delivers outbound
// messages and data item updates, and fans inbound messages out to
// registered listeners.
package hub
