package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/grandcat/zeroconf"

	"tarun-kavipurapu/lanshare/pkg/logger"
)

const (
	// ServiceType is the mDNS service type of a transfer receiver.
	ServiceType = "_lanshare._tcp"
	Domain      = "local."

	txtName = "name"
	txtAddr = "addr"
)

// ServiceInfo is a receiver found over mDNS.
type ServiceInfo struct {
	Instance string
	HostName string
	Port     int
	IPs      []string
	Meta     map[string]string
}

// DisplayName prefers the advertised name over the instance label.
func (s ServiceInfo) DisplayName() string {
	if n := s.Meta[txtName]; n != "" {
		return n
	}
	return s.Instance
}

// Address is the address the receiver announced for itself, else its first
// IPv4 address.
func (s ServiceInfo) Address() string {
	if a := s.Meta[txtAddr]; a != "" {
		return a
	}
	if len(s.IPs) > 0 {
		return s.IPs[0]
	}
	return ""
}

// Advertiser publishes the local receiver over mDNS next to the broadcast
// announcements, so zeroconf browsers on the subnet see it as well.
type Advertiser struct {
	mu     sync.Mutex
	server *zeroconf.Server
}

func NewAdvertiser() *Advertiser {
	return &Advertiser{}
}

// Start registers a receiver named displayName on port. localAddr, if set, is
// published so browsers can skip address selection. A second Start is a no-op.
func (a *Advertiser) Start(displayName string, port int, localAddr string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		return nil
	}

	txt := []string{txtName + "=" + displayName}
	if localAddr != "" {
		txt = append(txt, txtAddr+"="+localAddr)
	}

	server, err := zeroconf.Register(instanceName(displayName), ServiceType, Domain, port, txt, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}

	a.server = server
	logger.Sugar.Infof("[mDNS] advertising: name=%s port=%d", displayName, port)
	return nil
}

func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		logger.Sugar.Info("[mDNS] advertisement withdrawn")
	}
}

// instanceName turns a display name into a DNS-SD instance label.
func instanceName(displayName string) string {
	label := strings.Map(func(r rune) rune {
		if r == '.' || r < 0x20 {
			return '-'
		}
		return r
	}, displayName)
	if label == "" {
		label = "receiver"
	}
	// DNS labels are capped at 63 bytes including the prefix.
	for len(label) > 54 {
		_, size := utf8.DecodeLastRuneInString(label)
		label = label[:len(label)-size]
	}
	return "lanshare-" + label
}

type Resolver struct {
	resolver *zeroconf.Resolver
}

func NewResolver() (*Resolver, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	return &Resolver{resolver: resolver}, nil
}

// Browse streams receivers with a usable address until ctx ends. The channel
// is closed when browsing stops.
func (r *Resolver) Browse(ctx context.Context) (<-chan ServiceInfo, error) {
	entries := make(chan *zeroconf.ServiceEntry)
	out := make(chan ServiceInfo, 10)

	if err := r.resolver.Browse(ctx, ServiceType, Domain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse services: %w", err)
	}

	go func() {
		defer close(out)
		for {
			var entry *zeroconf.ServiceEntry
			select {
			case <-ctx.Done():
				return
			case e, ok := <-entries:
				if !ok {
					return
				}
				entry = e
			}

			info := fromEntry(entry)
			if info.Address() == "" {
				logger.Sugar.Debugf("[mDNS] skipping %s: no IPv4 address", info.Instance)
				continue
			}
			logger.Sugar.Infof("[mDNS] found receiver: instance=%s addr=%s port=%d", info.Instance, info.Address(), info.Port)
			select {
			case out <- info:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Collect browses until ctx ends and returns each instance once, sorted by
// display name.
func (r *Resolver) Collect(ctx context.Context) ([]ServiceInfo, error) {
	ch, err := r.Browse(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]ServiceInfo)
	for info := range ch {
		seen[info.Instance] = info
	}

	found := make([]ServiceInfo, 0, len(seen))
	for _, info := range seen {
		found = append(found, info)
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].DisplayName() < found[j].DisplayName()
	})
	return found, nil
}

func fromEntry(entry *zeroconf.ServiceEntry) ServiceInfo {
	info := ServiceInfo{
		Instance: entry.Instance,
		HostName: entry.HostName,
		Port:     entry.Port,
		Meta:     make(map[string]string, len(entry.Text)),
	}
	for _, ip := range entry.AddrIPv4 {
		info.IPs = append(info.IPs, ip.String())
	}
	for _, record := range entry.Text {
		if k, v, ok := strings.Cut(record, "="); ok {
			info.Meta[k] = v
		}
	}
	return info
}
