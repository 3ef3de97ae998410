package discovery

import (
	"net"
	"testing"
)

func TestBroadcastAddress(t *testing.T) {
	tests := map[string]string{
		"192.168.1.37": "192.168.1.255",
		"10.0.12.1":    "10.0.12.255",
		"127.0.0.1":    LoopbackBroadcast,
		"127.0.1.1":    LoopbackBroadcast,
		"fe80::1":      LimitedBroadcast,
		"not-an-ip":    LimitedBroadcast,
	}
	for in, want := range tests {
		if got := BroadcastAddress(in); got != want {
			t.Errorf("BroadcastAddress(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLocalAddress(t *testing.T) {
	ip := net.ParseIP(LocalAddress())
	if ip == nil || ip.To4() == nil {
		t.Fatalf("LocalAddress returned %q, want an IPv4 address", LocalAddress())
	}
}
