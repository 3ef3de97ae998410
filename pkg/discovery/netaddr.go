package discovery

import (
	"net"
	"strings"
)

const (
	LoopbackAddr      = "127.0.0.1"
	LoopbackBroadcast = "127.255.255.255"
	LimitedBroadcast  = "255.255.255.255"

	// probeAddr is only used to pick a route; nothing is sent to it.
	probeAddr = "8.8.8.8:80"
)

// LocalAddress returns the IPv4 address of the interface the host would use
// to reach the outside world, or the loopback address if there is none.
func LocalAddress() string {
	conn, err := net.Dial("udp4", probeAddr)
	if err != nil {
		return LoopbackAddr
	}
	defer conn.Close()

	udpAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || udpAddr.IP.To4() == nil {
		return LoopbackAddr
	}
	return udpAddr.IP.String()
}

// BroadcastAddress assumes a /24 subnet: the last octet of ip becomes 255.
// Loopback maps to the loopback broadcast and anything unparsable to the
// limited broadcast address.
func BroadcastAddress(ip string) string {
	if ip == LoopbackAddr || strings.HasPrefix(ip, "127.") {
		return LoopbackBroadcast
	}
	v4 := net.ParseIP(ip).To4()
	if v4 == nil {
		return LimitedBroadcast
	}
	b := make(net.IP, len(v4))
	copy(b, v4)
	b[3] = 255
	return b.String()
}
