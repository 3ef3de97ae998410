package transfer

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"tarun-kavipurapu/lanshare/pkg/config"
	"tarun-kavipurapu/lanshare/pkg/events"
	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/monitor"
	"tarun-kavipurapu/lanshare/pkg/protocol"
	"tarun-kavipurapu/lanshare/pkg/transport"
	"tarun-kavipurapu/lanshare/pkg/transport/tcp"
)

// Sender streams one local file per call to a remote Receiver.
type Sender struct {
	cfg       config.TransferConfig
	transport transport.Transport
	events    *events.Queue
	wg        sync.WaitGroup
}

func NewSender(cfg config.TransferConfig, tr transport.Transport) *Sender {
	return &Sender{
		cfg:       cfg,
		transport: tr,
		events:    events.NewQueue(),
	}
}

func (s *Sender) Events() *events.Queue {
	return s.events
}

// Send runs SendFile on its own goroutine and returns immediately. The outcome
// is reported on the event feed.
func (s *Sender) Send(address string, port int, path string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.SendFile(context.Background(), address, port, path)
	}()
}

// Wait blocks until every transfer started with Send has finished.
func (s *Sender) Wait() {
	s.wg.Wait()
}

// SendFile transfers path to address:port. Besides the returned error, every
// failure is also emitted as an error Log so feed consumers see it.
func (s *Sender) SendFile(ctx context.Context, address string, port int, path string) error {
	id := uuid.NewString()
	err := s.sendFile(ctx, address, port, path, id)
	if err != nil {
		monitor.RecordFailure()
		s.emit(events.Errorf(events.SourceSender, "Error: %v", err).WithTransfer(id))
	}
	return err
}

func (s *Sender) sendFile(ctx context.Context, address string, port int, path, id string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}

	h := protocol.TransferHeader{FileName: filepath.Base(path), FileSize: uint64(info.Size())}
	if err := protocol.CheckName(h.FileName); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	target := net.JoinHostPort(address, strconv.Itoa(port))
	conn, err := s.transport.Dial(ctx, target)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", target, err)
	}
	defer conn.Close()

	if err := tcp.WriteHeader(conn, h); err != nil {
		return fmt.Errorf("send header to %s: %w", target, err)
	}
	s.emit(events.Logf(events.SourceSender, "Sending %s to %s", h.FileName, address).WithTransfer(id))

	progress := NewProgress(h.FileSize)
	// Never send more than announced, even if the file grows meanwhile.
	src := io.LimitReader(file, int64(h.FileSize))
	buf := make([]byte, s.cfg.BufferSize)

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, err := conn.Write(buf[:n]); err != nil {
				return fmt.Errorf("send %s: %w", h.FileName, err)
			}
			s.events.Push(events.Progress(events.SourceSender, id, progress.Advance(n)).WithRate(progress.Speed(), progress.ETA()))
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("read %s: %w", path, rerr)
		}
	}

	if !progress.Complete() {
		return fmt.Errorf("%w: %s shrank to %d of %d bytes", ErrIncomplete, h.FileName, progress.Moved, h.FileSize)
	}

	monitor.RecordTransfer(monitor.Sent, int64(h.FileSize), progress.StartTime)
	s.emit(events.Log(events.SourceSender, "File sent successfully").WithTransfer(id))
	return nil
}

func (s *Sender) emit(ev events.Event) {
	if ev.IsError() {
		logger.Sugar.Errorf("[Sender] %s", ev.Message)
	} else {
		logger.Sugar.Infof("[Sender] %s", ev.Message)
	}
	s.events.Push(ev)
}
