package discovery

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"tarun-kavipurapu/lanshare/pkg/config"
	"tarun-kavipurapu/lanshare/pkg/events"
)

const selfAddr = "10.254.0.1"

func testConfig() config.DiscoveryConfig {
	return config.DiscoveryConfig{
		Port:           0,
		Interval:       50 * time.Millisecond,
		ReceiveTimeout: 20 * time.Millisecond,
		LocalAddr:      selfAddr,
		BroadcastAddr:  "127.0.0.1",
	}
}

func newTestDirectory(cfg config.DiscoveryConfig) *Directory {
	d := NewDirectory("self", cfg)
	d.localAddr = cfg.LocalAddr
	return d
}

func countKind(evs []events.Event, kind events.Kind) int {
	n := 0
	for _, ev := range evs {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestDistinctPeersDiscoveredOnce(t *testing.T) {
	d := newTestDirectory(testConfig())
	now := time.Now()

	const n = 20
	for round := 0; round < 3; round++ {
		for i := 0; i < n; i++ {
			msg := fmt.Sprintf("DISCOVER:host-%d-round-%d:10.0.0.%d", i, round, i+2)
			d.handleDatagram([]byte(msg), nil, now)
		}
	}

	peers := d.Peers()
	if len(peers) != n {
		t.Fatalf("expected %d peers, got %d", n, len(peers))
	}
	for _, p := range peers {
		var idx int
		fmt.Sscanf(p.Address, "10.0.0.%d", &idx)
		if want := fmt.Sprintf("host-%d-round-0", idx-2); p.DisplayName != want {
			t.Errorf("peer %s: name %q, want first name %q", p.Address, p.DisplayName, want)
		}
	}

	evs := d.Events().Drain()
	if got := countKind(evs, events.KindPeerDiscovered); got != n {
		t.Fatalf("expected %d PeerDiscovered events, got %d", n, got)
	}
	seen := make(map[string]bool)
	for _, ev := range evs {
		if seen[ev.Address] {
			t.Errorf("address %s announced twice", ev.Address)
		}
		seen[ev.Address] = true
	}
}

func TestSelfSuppression(t *testing.T) {
	d := newTestDirectory(testConfig())
	d.handleDatagram([]byte("DISCOVER:me-again:"+selfAddr), nil, time.Now())

	if len(d.Peers()) != 0 {
		t.Errorf("own address entered the directory: %+v", d.Peers())
	}
	if evs := d.Events().Drain(); len(evs) != 0 {
		t.Errorf("expected no events, got %v", evs)
	}
}

func TestMalformedDatagramsIgnored(t *testing.T) {
	d := newTestDirectory(testConfig())
	for _, msg := range []string{
		"HELLO:alice:10.0.0.2",
		"DISCOVER:alice",
		"DISCOVER:alice:10.0.0.2:9",
		"DISCOVER:alice:",
		"",
		"\xff\xfe",
	} {
		d.handleDatagram([]byte(msg), nil, time.Now())
	}

	if len(d.Peers()) != 0 {
		t.Errorf("malformed datagram produced peers: %+v", d.Peers())
	}
	if evs := d.Events().Drain(); len(evs) != 0 {
		t.Errorf("expected no events, got %v", evs)
	}
}

func TestExpire(t *testing.T) {
	cfg := testConfig()
	cfg.PeerTTL = time.Minute
	d := newTestDirectory(cfg)

	t0 := time.Now()
	d.handleDatagram([]byte("DISCOVER:alice:10.0.0.2"), nil, t0)
	d.handleDatagram([]byte("DISCOVER:bob:10.0.0.3"), nil, t0)
	// bob keeps announcing, alice goes quiet.
	d.handleDatagram([]byte("DISCOVER:bob:10.0.0.3"), nil, t0.Add(50*time.Second))
	d.Events().Drain()

	d.expire(t0.Add(90 * time.Second))

	if _, ok := d.Lookup("10.0.0.2"); ok {
		t.Error("alice should have expired")
	}
	if _, ok := d.Lookup("10.0.0.3"); !ok {
		t.Error("bob should still be present")
	}
	evs := d.Events().Drain()
	if len(evs) != 1 || evs[0].Kind != events.KindPeerLost || evs[0].Address != "10.0.0.2" {
		t.Fatalf("expected one PeerLost for alice, got %v", evs)
	}
}

func TestNoExpiryWithoutTTL(t *testing.T) {
	d := newTestDirectory(testConfig())
	t0 := time.Now()
	d.handleDatagram([]byte("DISCOVER:alice:10.0.0.2"), nil, t0)
	d.expire(t0.Add(24 * time.Hour))

	if len(d.Peers()) != 1 {
		t.Errorf("peer removed without a TTL")
	}
}

func TestDirectoryLoopback(t *testing.T) {
	d := NewDirectory("self", testConfig())
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("directory should be running")
	}
	if d.LocalAddr() != selfAddr {
		t.Fatalf("local addr %q", d.LocalAddr())
	}

	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: d.Addr().Port})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var got []events.Event
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn.Write([]byte("DISCOVER:alice:10.254.0.2"))
		conn.Write([]byte("garbage"))
		got = append(got, d.Events().Drain()...)
		if countKind(got, events.KindPeerDiscovered) > 0 {
			break
		}
		time.Sleep(30 * time.Millisecond)
	}
	// Let a few more iterations pass so repeats and our own broadcasts arrive.
	time.Sleep(200 * time.Millisecond)
	got = append(got, d.Events().Drain()...)

	d.Stop()
	select {
	case <-d.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after Stop")
	}
	if d.Running() {
		t.Error("directory still running after Stop")
	}

	discovered := 0
	for _, ev := range got {
		if ev.Kind != events.KindPeerDiscovered {
			continue
		}
		discovered++
		if ev.Address == selfAddr {
			t.Error("own broadcast produced PeerDiscovered")
		}
		if ev.Address != "10.254.0.2" || ev.DisplayName != "alice" {
			t.Errorf("unexpected peer %+v", ev)
		}
	}
	if discovered != 1 {
		t.Fatalf("expected exactly one PeerDiscovered, got %d (%v)", discovered, got)
	}
	if p, ok := d.Lookup("10.254.0.2"); !ok || p.DisplayName != "alice" {
		t.Errorf("lookup: %+v %v", p, ok)
	}
}

func TestTransportFailureKeepsLoopRunning(t *testing.T) {
	d := NewDirectory("self", testConfig())
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Every iteration after this fails on the closed socket.
	d.stateMu.Lock()
	d.conn.Close()
	d.stateMu.Unlock()

	var failures int
	deadline := time.Now().Add(3 * time.Second)
	for failures < 2 && time.Now().Before(deadline) {
		for _, ev := range d.Events().Drain() {
			if ev.Kind == events.KindLog && ev.IsError() && strings.HasPrefix(ev.Message, "Discovery error:") {
				failures++
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	if failures < 2 {
		t.Fatalf("expected repeated discovery errors, got %d", failures)
	}
	if !d.Running() {
		t.Error("directory stopped after a transport failure")
	}

	d.Stop()
	select {
	case <-d.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after Stop")
	}
}
