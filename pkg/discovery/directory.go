package discovery

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"tarun-kavipurapu/lanshare/pkg/config"
	"tarun-kavipurapu/lanshare/pkg/events"
	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/protocol"
)

const maxDatagram = 1024

// PeerRecord is a host seen on the discovery port. DisplayName is the one
// from the first announcement and is never updated.
type PeerRecord struct {
	Address     string
	DisplayName string
	FirstSeen   time.Time
	LastSeen    time.Time
}

// Directory broadcasts this host's presence and collects other hosts'
// announcements. It owns its peer map; callers only see snapshots and the
// event feed.
type Directory struct {
	cfg    config.DiscoveryConfig
	name   string
	events *events.Queue

	mu    sync.RWMutex
	peers map[string]*PeerRecord

	stateMu       sync.Mutex
	running       bool
	conn          *net.UDPConn
	quitCh        chan struct{}
	doneCh        chan struct{}
	localAddr     string
	broadcastAddr string
}

func NewDirectory(name string, cfg config.DiscoveryConfig) *Directory {
	return &Directory{
		cfg:    cfg,
		name:   name,
		events: events.NewQueue(),
		peers:  make(map[string]*PeerRecord),
	}
}

// Events is the directory's event feed.
func (d *Directory) Events() *events.Queue {
	return d.events
}

// Start binds the discovery port and launches the broadcast/listen loop.
// Calling Start on a running directory does nothing.
func (d *Directory) Start() error {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()

	if d.running {
		return nil
	}
	// A previous loop may still be finishing its iteration.
	if d.doneCh != nil {
		<-d.doneCh
	}

	d.localAddr = d.cfg.LocalAddr
	if d.localAddr == "" {
		d.localAddr = LocalAddress()
	}
	d.broadcastAddr = d.cfg.BroadcastAddr
	if d.broadcastAddr == "" {
		d.broadcastAddr = BroadcastAddress(d.localAddr)
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: d.cfg.Port})
	if err != nil {
		d.emit(events.Errorf(events.SourceDiscovery, "Discovery error: %v", err))
		return fmt.Errorf("bind discovery port %d: %w", d.cfg.Port, err)
	}

	port := conn.LocalAddr().(*net.UDPAddr).Port
	dst, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(d.broadcastAddr, fmt.Sprint(port)))
	if err != nil {
		conn.Close()
		return fmt.Errorf("resolve broadcast address %s: %w", d.broadcastAddr, err)
	}

	d.conn = conn
	d.quitCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	d.running = true

	logger.Sugar.Infof("[Discovery] started: name=%s local=%s broadcast=%s port=%d", d.name, d.localAddr, d.broadcastAddr, port)

	go d.loop(conn, dst, d.quitCh, d.doneCh)
	return nil
}

// Stop asks the loop to exit at its next iteration boundary. It does not
// wait; use Done for that.
func (d *Directory) Stop() {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()

	if !d.running {
		return
	}
	close(d.quitCh)
	d.running = false
	logger.Sugar.Infof("[Discovery] stopping")
}

// Done is closed once the most recently started loop has exited.
func (d *Directory) Done() <-chan struct{} {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()

	if d.doneCh == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return d.doneCh
}

func (d *Directory) Running() bool {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.running
}

// LocalAddr is the address this host announces and suppresses on receipt.
func (d *Directory) LocalAddr() string {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.localAddr
}

// Addr is the bound UDP address, or nil if the directory was never started.
func (d *Directory) Addr() *net.UDPAddr {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	if d.conn == nil {
		return nil
	}
	return d.conn.LocalAddr().(*net.UDPAddr)
}

// Peers returns a snapshot sorted by address.
func (d *Directory) Peers() []PeerRecord {
	d.mu.RLock()
	out := make([]PeerRecord, 0, len(d.peers))
	for _, p := range d.peers {
		out = append(out, *p)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func (d *Directory) Lookup(address string) (PeerRecord, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.peers[address]
	if !ok {
		return PeerRecord{}, false
	}
	return *p, true
}

func (d *Directory) loop(conn *net.UDPConn, dst *net.UDPAddr, quitCh, doneCh chan struct{}) {
	defer close(doneCh)
	defer conn.Close()

	msg := protocol.EncodeAnnouncement(protocol.Announcement{DisplayName: d.name, Address: d.localAddr})
	buf := make([]byte, maxDatagram)

	for {
		select {
		case <-quitCh:
			logger.Sugar.Infof("[Discovery] loop exited")
			return
		default:
		}

		if err := d.iterate(conn, dst, msg, buf); err != nil {
			logger.Sugar.Errorf("[Discovery] iteration failed: %v", err)
			d.emit(events.Errorf(events.SourceDiscovery, "Discovery error: %v", err))
		}
		d.expire(time.Now())

		select {
		case <-quitCh:
			logger.Sugar.Infof("[Discovery] loop exited")
			return
		case <-time.After(d.cfg.Interval):
		}
	}
}

// iterate sends one announcement, then handles every datagram that arrives
// within the receive window. A timeout ends the window and is not an error.
func (d *Directory) iterate(conn *net.UDPConn, dst *net.UDPAddr, msg, buf []byte) error {
	if _, err := conn.WriteToUDP(msg, dst); err != nil {
		return fmt.Errorf("broadcast to %s: %w", dst, err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(d.cfg.ReceiveTimeout)); err != nil {
		return fmt.Errorf("set read deadline: %w", err)
	}
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		d.handleDatagram(buf[:n], from, time.Now())
	}
}

func (d *Directory) handleDatagram(b []byte, from *net.UDPAddr, now time.Time) {
	a, err := protocol.ParseAnnouncement(b)
	if err != nil {
		logger.Sugar.Debugf("[Discovery] ignored datagram: from=%v err=%v", from, err)
		return
	}
	if a.Address == d.localAddr {
		return
	}

	d.mu.Lock()
	if p, ok := d.peers[a.Address]; ok {
		p.LastSeen = now
		d.mu.Unlock()
		return
	}
	d.peers[a.Address] = &PeerRecord{
		Address:     a.Address,
		DisplayName: a.DisplayName,
		FirstSeen:   now,
		LastSeen:    now,
	}
	d.mu.Unlock()

	d.emit(events.PeerDiscovered(a.Address, a.DisplayName))
}

// expire drops peers silent for longer than PeerTTL. A zero TTL keeps every
// peer for the directory's lifetime.
func (d *Directory) expire(now time.Time) {
	if d.cfg.PeerTTL <= 0 {
		return
	}

	var lost []PeerRecord
	d.mu.Lock()
	for addr, p := range d.peers {
		if now.Sub(p.LastSeen) > d.cfg.PeerTTL {
			lost = append(lost, *p)
			delete(d.peers, addr)
		}
	}
	d.mu.Unlock()

	for _, p := range lost {
		d.emit(events.PeerLost(p.Address, p.DisplayName))
	}
}

func (d *Directory) emit(ev events.Event) {
	switch ev.Kind {
	case events.KindPeerDiscovered:
		logger.Sugar.Infof("[Discovery] discovered peer: name=%s addr=%s", ev.DisplayName, ev.Address)
	case events.KindPeerLost:
		logger.Sugar.Infof("[Discovery] peer expired: name=%s addr=%s", ev.DisplayName, ev.Address)
	}
	d.events.Push(ev)
}
