// ABOUTME: Normalizes user-entered server addresses into dialable
// ABOUTME: websocket URLs, shared by the config layer and the -server flag
package client

import (
	"net"
	"strings"
)

const defaultServerPort = "8080"

// NormalizeServerURL turns whatever the user typed into a websocket URL.
// Explicit ws:// and wss:// URLs pass through untouched. A bare host or
// host:port gets ws://, the default port when missing, and the /ws path.
//
//	parley.chat            -> ws://parley.chat:8080/ws
//	parley.chat:9000       -> ws://parley.chat:9000/ws
//	wss://parley.chat/ws   -> wss://parley.chat/ws
func NormalizeServerURL(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}

	if strings.Contains(address, "://") {
		return address
	}

	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, defaultServerPort)
	}

	return "ws://" + address + "/ws"
}
