package transfer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"tarun-kavipurapu/lanshare/pkg/config"
	"tarun-kavipurapu/lanshare/pkg/events"
	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/monitor"
	"tarun-kavipurapu/lanshare/pkg/protocol"
	"tarun-kavipurapu/lanshare/pkg/transport"
	"tarun-kavipurapu/lanshare/pkg/transport/tcp"
)

// trailingWindow bounds the wait for bytes past the announced size.
const trailingWindow = 200 * time.Millisecond

// Receiver accepts transfers on the transport's listening socket and writes
// each file into DestDir. Every connection is handled on its own goroutine.
type Receiver struct {
	cfg       config.TransferConfig
	transport transport.Transport
	events    *events.Queue

	mu      sync.Mutex
	running bool
}

// NewReceiver wires the receiver as tr's connection handler.
func NewReceiver(cfg config.TransferConfig, tr transport.Transport) *Receiver {
	r := &Receiver{
		cfg:       cfg,
		transport: tr,
		events:    events.NewQueue(),
	}
	tr.SetOnConn(r.handleConn)
	return r
}

func (r *Receiver) Events() *events.Queue {
	return r.events
}

// Start binds the listening socket. It is a no-op while already listening.
func (r *Receiver) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}
	if err := r.transport.ListenAndAccept(); err != nil {
		r.emit(events.Errorf(events.SourceReceiver, "Error: %v", err))
		return err
	}
	r.running = true
	logger.Sugar.Infof("[Receiver] listening: addr=%s dest=%s", r.transport.Addr(), r.cfg.DestDir)
	return nil
}

// Stop closes the listening socket. Transfers already in progress continue.
func (r *Receiver) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return nil
	}
	r.running = false
	logger.Sugar.Infof("[Receiver] stopping: addr=%s", r.transport.Addr())
	return r.transport.Close()
}

func (r *Receiver) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Addr is the bound listening address.
func (r *Receiver) Addr() string {
	return r.transport.Addr()
}

func (r *Receiver) handleConn(conn net.Conn) {
	peer := remoteHost(conn)

	h, body, err := tcp.ReadHeader(conn, r.cfg.BufferSize)
	if err != nil {
		if errors.Is(err, protocol.ErrNotFileHeader) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			logger.Sugar.Debugf("[Receiver] dropped connection without file header: remote=%s err=%v", peer, err)
			return
		}
		monitor.RecordFailure()
		r.emit(events.Errorf(events.SourceReceiver, "Error: rejected transfer from %s: %v", peer, err))
		return
	}

	id := uuid.NewString()
	r.emit(events.Logf(events.SourceReceiver, "Receiving %s from %s", h.FileName, peer).WithTransfer(id))

	if err := r.receive(conn, h, body, id); err != nil {
		monitor.RecordFailure()
		r.emit(events.Errorf(events.SourceReceiver, "Error: %v", err).WithTransfer(id))
		return
	}

	r.emit(events.Logf(events.SourceReceiver, "File received: %s", h.FileName).WithTransfer(id))
}

func (r *Receiver) receive(conn net.Conn, h protocol.TransferHeader, body []byte, id string) error {
	if uint64(len(body)) > h.FileSize {
		return fmt.Errorf("%w: %s (%d bytes announced)", ErrOverflow, h.FileName, h.FileSize)
	}

	if err := os.MkdirAll(r.cfg.DestDir, 0755); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}

	path := filepath.Join(r.cfg.DestDir, h.FileName)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	progress := NewProgress(h.FileSize)
	src := io.MultiReader(bytes.NewReader(body), conn)
	buf := make([]byte, r.cfg.BufferSize)

	for !progress.Complete() {
		want := uint64(len(buf))
		if rem := progress.Remaining(); rem < want {
			want = rem
		}

		n, rerr := src.Read(buf[:want])
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			r.events.Push(events.Progress(events.SourceReceiver, id, progress.Advance(n)).WithRate(progress.Speed(), progress.ETA()))
		}
		if rerr == io.EOF {
			return fmt.Errorf("%w: %s (%d/%d bytes)", ErrIncomplete, h.FileName, progress.Moved, h.FileSize)
		}
		if rerr != nil {
			return fmt.Errorf("read %s: %w", h.FileName, rerr)
		}
	}

	if trailingData(conn) {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("%w: %s (%d bytes announced)", ErrOverflow, h.FileName, h.FileSize)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	monitor.RecordTransfer(monitor.Received, int64(h.FileSize), progress.StartTime)
	return nil
}

func (r *Receiver) emit(ev events.Event) {
	if ev.IsError() {
		logger.Sugar.Errorf("[Receiver] %s", ev.Message)
	} else {
		logger.Sugar.Infof("[Receiver] %s", ev.Message)
	}
	r.events.Push(ev)
}

// trailingData reports whether the peer sent anything after the announced
// body. A sender that is done either closes or goes quiet within
// trailingWindow.
func trailingData(conn net.Conn) bool {
	if err := conn.SetReadDeadline(time.Now().Add(trailingWindow)); err != nil {
		return false
	}
	defer conn.SetReadDeadline(time.Time{})

	var one [1]byte
	n, _ := conn.Read(one[:])
	return n > 0
}
