package transport

import (
	"context"
	"net"
)

// ConnHandler serves one accepted connection. The transport closes the
// connection after the handler returns.
type ConnHandler func(conn net.Conn)

// Transport handles the network layer
type Transport interface {
	ListenAndAccept() error
	Dial(ctx context.Context, addr string) (net.Conn, error)
	Close() error
	Addr() string
	SetOnConn(ConnHandler)
}
