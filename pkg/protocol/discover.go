package protocol

import (
	"fmt"
	"strings"
)

// EncodeAnnouncement renders DISCOVER:<name>:<address>.
func EncodeAnnouncement(a Announcement) []byte {
	return []byte(DiscoverTag + Separator + a.DisplayName + Separator + a.Address)
}

// ParseAnnouncement splits a datagram on its first two colons. Anything other
// than exactly three fields tagged DISCOVER is rejected.
func ParseAnnouncement(b []byte) (Announcement, error) {
	s := string(b)
	if !strings.HasPrefix(s, DiscoverTag+Separator) {
		return Announcement{}, ErrNotDiscover
	}

	parts := strings.Split(s, Separator)
	if len(parts) != 3 {
		return Announcement{}, fmt.Errorf("%w: %d fields in discovery datagram", ErrMalformed, len(parts))
	}
	if parts[2] == "" {
		return Announcement{}, fmt.Errorf("%w: empty address", ErrMalformed)
	}

	return Announcement{DisplayName: parts[1], Address: parts[2]}, nil
}
