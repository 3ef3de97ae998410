// Package transfer implements both ends of the FILE:<name>:<size> stream
// protocol. Each side reports what happens only through its event feed.
package transfer

import (
	"errors"
	"net"
)

var (
	// ErrIncomplete means the stream ended before the announced size.
	ErrIncomplete = errors.New("transfer incomplete")
	// ErrOverflow means the peer sent more bytes than it announced.
	ErrOverflow = errors.New("peer sent more data than announced")
)

// remoteHost returns the host part of conn's peer address.
func remoteHost(conn net.Conn) string {
	addr := conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
