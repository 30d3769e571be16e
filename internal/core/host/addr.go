package host

import (
	"fmt"
	"net"
	"strings"
)

// NormalizeAddr accepts either a full URL or a host:port pair and returns a
// base URL for the control API.
func NormalizeAddr(from string) (string, error) {
	if strings.HasPrefix(from, "http://") || strings.HasPrefix(from, "https://") {
		return from, nil
	}
	host, port, err := net.SplitHostPort(from)
	if err != nil {
		return "", err
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%s", host, port), nil
}
