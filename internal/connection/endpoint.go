package connection

import (
	"net"
	"net/url"
	"strings"
)

// DefaultPath is the hub's websocket API path.
const DefaultPath = "/api/websocket"

// Endpoint describes how to reach the hub.
//
// In development mode DevHost/DevPort override the ambient Host/Port, the way
// a dev server proxies to a hub on another machine. Secure selects wss.
type Endpoint struct {
	Development bool
	Secure      bool
	Host        string
	Port        string
	DevHost     string
	DevPort     string
	Path        string
}

// URL resolves the websocket URL.
func (e Endpoint) URL() (string, error) {
	host, port := e.Host, e.Port
	if e.Development {
		host, port = e.DevHost, e.DevPort
	}
	if host == "" {
		return "", ErrEmptyHost
	}

	scheme := "ws"
	if e.Secure {
		scheme = "wss"
	}

	// Bare IPv6 literals need brackets even without a port.
	hostport := host
	if port != "" {
		hostport = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		hostport = "[" + host + "]"
	}

	path := e.Path
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := url.URL{Scheme: scheme, Host: hostport, Path: path}
	return u.String(), nil
}

// Mode returns "development" or "production" for logging.
func (e Endpoint) Mode() string {
	if e.Development {
		return "development"
	}
	return "production"
}
