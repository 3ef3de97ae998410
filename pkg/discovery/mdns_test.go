package discovery

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/grandcat/zeroconf"
)

func TestFromEntry(t *testing.T) {
	entry := zeroconf.NewServiceEntry("lanshare-desk", ServiceType, Domain)
	entry.Port = 12345
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.20")}
	entry.Text = []string{"name=desk", "addr=192.168.1.21", "junk"}

	info := fromEntry(entry)
	if info.DisplayName() != "desk" {
		t.Errorf("display name %q", info.DisplayName())
	}
	if info.Address() != "192.168.1.21" {
		t.Errorf("address %q, want the advertised one", info.Address())
	}

	delete(info.Meta, txtAddr)
	if info.Address() != "192.168.1.20" {
		t.Errorf("address %q, want first IPv4", info.Address())
	}
	delete(info.Meta, txtName)
	if info.DisplayName() != "lanshare-desk" {
		t.Errorf("fallback display name %q", info.DisplayName())
	}
}

func TestInstanceName(t *testing.T) {
	if got := instanceName("my.box"); got != "lanshare-my-box" {
		t.Errorf("got %q", got)
	}
	if got := instanceName(""); got != "lanshare-receiver" {
		t.Errorf("got %q", got)
	}
	if got := instanceName(strings.Repeat("x", 100)); len(got) > 63 {
		t.Errorf("label too long: %d", len(got))
	}
	got := instanceName(strings.Repeat("é", 40))
	if len(got) > 63 || !utf8.ValidString(got) {
		t.Errorf("multibyte name cut badly: %q (%d bytes)", got, len(got))
	}
}

func TestMDNSAdvertiseAndBrowse(t *testing.T) {
	// Multicast is often filtered in CI and containers.
	if testing.Short() {
		t.Skip("Skipping mDNS test in short mode")
	}

	advertiser := NewAdvertiser()
	port := 12399
	if err := advertiser.Start("test-box", port, "10.254.7.7"); err != nil {
		t.Skipf("mDNS unavailable: %v", err)
	}
	defer advertiser.Stop()

	time.Sleep(500 * time.Millisecond)

	resolver, err := NewResolver()
	if err != nil {
		t.Skipf("mDNS unavailable: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	found, err := resolver.Collect(ctx)
	if err != nil {
		t.Fatalf("Failed to browse: %v", err)
	}
	for _, info := range found {
		if info.Port == port && info.Address() == "10.254.7.7" {
			if info.DisplayName() != "test-box" {
				t.Errorf("display name %q", info.DisplayName())
			}
			return
		}
	}
	t.Skip("advertised service not seen; multicast likely filtered")
}
