package fetch

import (
	"net/netip"
	"strings"
)

// BlockedHost reports whether a hostname must never be fetched. Cited URLs
// are attacker-chosen, so anything that targets the local machine or a
// private network is rejected before any connection is attempted.
//
// Blocked: "localhost", loopback addresses (127.0.0.0/8, ::1), and the
// private ranges 10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16 (and their IPv6
// ULA equivalent).
func BlockedHost(host string) bool {
	h := strings.ToLower(strings.TrimSuffix(host, "."))
	if h == "localhost" || strings.HasSuffix(h, ".localhost") {
		return true
	}

	addr, err := netip.ParseAddr(h)
	if err != nil {
		// Not an IP literal; named hosts pass the guard.
		return false
	}

	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}
