package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/transport"
)

// TCPTransport implements transport.Transport. Every accepted connection is
// served on its own goroutine; there is no admission limit.
type TCPTransport struct {
	listenAddr  string
	dialTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	onConn   transport.ConnHandler
	quitCh   chan struct{}
	wg       sync.WaitGroup
}

func NewTCPTransport(addr string, dialTimeout time.Duration) *TCPTransport {
	return &TCPTransport{
		listenAddr:  addr,
		dialTimeout: dialTimeout,
	}
}

func (t *TCPTransport) SetOnConn(f transport.ConnHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onConn = f
}

func (t *TCPTransport) ListenAndAccept() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", t.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", t.listenAddr, err)
	}
	t.listener = ln
	t.quitCh = make(chan struct{})

	t.wg.Add(1)
	go t.acceptLoop(ln, t.quitCh)
	return nil
}

func (t *TCPTransport) acceptLoop(ln net.Listener, quitCh chan struct{}) {
	defer t.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-quitCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Sugar.Errorf("[TCPTransport] accept error: listen=%s err=%v", ln.Addr(), err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		t.mu.Lock()
		handler := t.onConn
		t.mu.Unlock()

		go t.handleConn(conn, handler)
	}
}

func (t *TCPTransport) handleConn(conn net.Conn, handler transport.ConnHandler) {
	defer conn.Close()

	if handler == nil {
		logger.Sugar.Warnf("[TCPTransport] no handler, dropping connection: remote=%s", conn.RemoteAddr())
		return
	}
	handler(conn)
}

func (t *TCPTransport) Dial(ctx context.Context, addr string) (net.Conn, error) {
	d := net.Dialer{Timeout: t.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Close stops accepting. Connections already being served run to completion.
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	ln := t.listener
	t.listener = nil
	if ln != nil {
		close(t.quitCh)
	}
	t.mu.Unlock()

	if ln == nil {
		return nil
	}
	err := ln.Close()
	t.wg.Wait()
	return err
}

// Addr returns the bound address while listening, else the configured one.
func (t *TCPTransport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.listenAddr
}
