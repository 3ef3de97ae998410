package peer

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"tarun-kavipurapu/lanshare/pkg/config"
	"tarun-kavipurapu/lanshare/pkg/discovery"
	"tarun-kavipurapu/lanshare/pkg/events"
	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/monitor"
	"tarun-kavipurapu/lanshare/pkg/transfer"
	"tarun-kavipurapu/lanshare/pkg/transport"
	"tarun-kavipurapu/lanshare/pkg/transport/tcp"
)

// Node composes discovery, the receiver and the sender for one host. It owns
// none of their state; it only starts, stops and routes between them.
type Node struct {
	cfg        config.Config
	Transport  transport.Transport
	Directory  *discovery.Directory
	Receiver   *transfer.Receiver
	Sender     *transfer.Sender
	advertiser *discovery.Advertiser
}

func NewNode(cfg config.Config) *Node {
	listenAddr := net.JoinHostPort("", strconv.Itoa(cfg.Transfer.Port))
	trans := tcp.NewTCPTransport(listenAddr, cfg.Transfer.DialTimeout)

	node := &Node{
		cfg:        cfg,
		Transport:  trans,
		Directory:  discovery.NewDirectory(cfg.Name, cfg.Discovery),
		Receiver:   transfer.NewReceiver(cfg.Transfer, trans),
		Sender:     transfer.NewSender(cfg.Transfer, trans),
		advertiser: discovery.NewAdvertiser(),
	}

	logger.Sugar.Infof("[Node] Initialized: name=%s transfer=%s discovery-port=%d", cfg.Name, listenAddr, cfg.Discovery.Port)
	return node
}

// Start brings up the receiver, then discovery. mDNS advertisement is best
// effort.
func (n *Node) Start() error {
	if err := n.Receiver.Start(); err != nil {
		return fmt.Errorf("failed to start receiver: %w", err)
	}
	if err := n.Directory.Start(); err != nil {
		return multierr.Append(
			fmt.Errorf("failed to start discovery: %w", err),
			n.Receiver.Stop(),
		)
	}

	if n.cfg.Discovery.MDNS {
		if port, err := n.receiverPort(); err != nil {
			logger.Sugar.Warnf("[Node] mDNS skipped: %v", err)
		} else if err := n.advertiser.Start(n.cfg.Name, port, n.Directory.LocalAddr()); err != nil {
			logger.Sugar.Warnf("[Node] mDNS advertisement failed: %v", err)
		}
	}
	return nil
}

// StartReceiverOnly listens for transfers without announcing the host.
func (n *Node) StartReceiverOnly() error {
	return n.Receiver.Start()
}

// Stop ends discovery and closes the listener. In-flight transfers are left
// to finish on their own.
func (n *Node) Stop() error {
	n.advertiser.Stop()
	n.Directory.Stop()

	var err error
	err = multierr.Append(err, n.Receiver.Stop())

	select {
	case <-n.Directory.Done():
	case <-time.After(n.cfg.Discovery.Interval + n.cfg.Discovery.ReceiveTimeout + time.Second):
		err = multierr.Append(err, fmt.Errorf("discovery loop did not exit"))
	}
	return err
}

// SendTo starts an asynchronous transfer of path. target is an address,
// address:port, or the display name of a discovered peer.
func (n *Node) SendTo(target, path string) error {
	host, port, err := resolveTarget(target, n.Directory.Peers(), n.cfg.Transfer.Port)
	if err != nil {
		return err
	}
	logger.Sugar.Infof("[Node] send requested: target=%s resolved=%s:%d file=%s", target, host, port, path)
	n.Sender.Send(host, port, path)
	return nil
}

// SendNow is the blocking form of SendTo.
func (n *Node) SendNow(ctx context.Context, target, path string) error {
	host, port, err := resolveTarget(target, n.Directory.Peers(), n.cfg.Transfer.Port)
	if err != nil {
		return err
	}
	return n.Sender.SendFile(ctx, host, port, path)
}

// Feeds returns the three event feeds in a fixed order.
func (n *Node) Feeds() []*events.Queue {
	return []*events.Queue{n.Directory.Events(), n.Receiver.Events(), n.Sender.Events()}
}

func (n *Node) Peers() []discovery.PeerRecord {
	return n.Directory.Peers()
}

func (n *Node) GetStatus() string {
	s := monitor.Global.Snapshot()
	return fmt.Sprintf("Node %s | local=%s | receiver=%s (running=%v) | discovery running=%v | peers=%d | sent=%d (%s) | received=%d (%s) | failed=%d",
		n.cfg.Name, n.Directory.LocalAddr(), n.Receiver.Addr(), n.Receiver.Running(), n.Directory.Running(),
		len(n.Directory.Peers()), s.FilesSent, formatBytes(float64(s.BytesSent)),
		s.FilesReceived, formatBytes(float64(s.BytesReceived)), s.Failures)
}

// FormatPeers renders a peer table, one host per line.
func FormatPeers(peers []discovery.PeerRecord) string {
	if len(peers) == 0 {
		return "No devices discovered yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %-24s %s\n", "IP Address", "Device Name", "Last Seen")
	for _, p := range peers {
		fmt.Fprintf(&b, "%-16s %-24s %s ago\n", p.Address, p.DisplayName, time.Since(p.LastSeen).Round(time.Second))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (n *Node) receiverPort() (int, error) {
	_, portStr, err := net.SplitHostPort(n.Receiver.Addr())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}

func resolveTarget(target string, peers []discovery.PeerRecord, defaultPort int) (string, int, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", 0, fmt.Errorf("empty target")
	}

	if host, portStr, err := net.SplitHostPort(target); err == nil {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return "", 0, fmt.Errorf("invalid port in %q", target)
		}
		return host, port, nil
	}

	for _, p := range peers {
		if p.Address == target {
			return p.Address, defaultPort, nil
		}
	}
	var matches []discovery.PeerRecord
	for _, p := range peers {
		if p.DisplayName == target {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0].Address, defaultPort, nil
	case 0:
		// Not a known peer; let the dialer resolve it as a host name.
		return target, defaultPort, nil
	default:
		return "", 0, fmt.Errorf("peer name %q is ambiguous (%d hosts)", target, len(matches))
	}
}
