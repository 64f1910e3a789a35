package neighbor

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/projectdiscovery/mapcidr"
	errorutil "github.com/projectdiscovery/utils/errors"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// MinPrefixBits refuses ranges larger than a /16.
const MinPrefixBits = 16

// ParseTargets expands IPv4 addresses and CIDR ranges into the list of
// addresses to resolve. Items may be comma separated. Network and broadcast
// addresses of a range are skipped and duplicates are dropped, keeping the
// first occurrence.
func ParseTargets(targets []string) ([]netip.Addr, error) {
	var out []netip.Addr
	seen := make(map[netip.Addr]struct{})
	add := func(addr netip.Addr) {
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}

	for _, item := range targets {
		for _, target := range strings.Split(item, ",") {
			target = strings.TrimSpace(target)
			if target == "" {
				continue
			}

			if strings.Contains(target, "/") {
				prefix, err := netip.ParsePrefix(target)
				if err != nil || !prefix.Addr().Is4() {
					return nil, fmt.Errorf("invalid target format: %s (must be an ipv4 CIDR or IP)", target)
				}
				addrs, err := expandPrefix(prefix)
				if err != nil {
					return nil, err
				}
				for _, addr := range addrs {
					add(addr)
				}
				continue
			}

			addr, err := netip.ParseAddr(target)
			if err != nil || !addr.Unmap().Is4() {
				return nil, fmt.Errorf("invalid target format: %s (must be an ipv4 CIDR or IP)", target)
			}
			add(addr.Unmap())
		}
	}
	return out, nil
}

func expandPrefix(prefix netip.Prefix) ([]netip.Addr, error) {
	prefix = prefix.Masked()
	if prefix.Bits() < MinPrefixBits {
		return nil, fmt.Errorf("range %s is larger than a /%d", prefix, MinPrefixBits)
	}

	ips, err := mapcidr.IPAddresses(prefix.String())
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("failed to expand CIDR %s", prefix)
	}

	addrs := make([]netip.Addr, 0, len(ips))
	for _, ipStr := range ips {
		addr, err := netip.ParseAddr(ipStr)
		if err != nil {
			continue
		}
		if IsNetworkOrBroadcast(addr, prefix) {
			continue
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// IsNetworkOrBroadcast reports whether addr is the first or last address of
// prefix. /31 and /32 have neither.
func IsNetworkOrBroadcast(addr netip.Addr, prefix netip.Prefix) bool {
	if !prefix.IsValid() || !addr.Is4() || prefix.Bits() >= 31 {
		return false
	}
	prefix = prefix.Masked()
	if addr == prefix.Addr() {
		return true
	}

	b := prefix.Addr().As4()
	hostBits := 32 - prefix.Bits()
	for i := 3; i >= 0 && hostBits > 0; i-- {
		n := min(hostBits, 8)
		b[i] |= byte(1<<n - 1)
		hostBits -= n
	}
	return addr == netip.AddrFrom4(b)
}

// LocalNetworks24 returns the private /24 of every IPv4 address on an up,
// non-loopback interface.
func LocalNetworks24() ([]netip.Prefix, error) {
	stats, err := psnet.Interfaces()
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("failed to get local networks")
	}
	return networks24(stats), nil
}

func networks24(stats psnet.InterfaceStatList) []netip.Prefix {
	var out []netip.Prefix
	seen := make(map[netip.Prefix]struct{})

	for _, iface := range stats {
		if !usable(iface) {
			continue
		}
		for _, a := range iface.Addrs {
			prefix, err := netip.ParsePrefix(a.Addr)
			if err != nil {
				continue
			}
			addr := prefix.Addr()
			if !addr.Is4() || !addr.IsPrivate() {
				continue
			}

			network := netip.PrefixFrom(addr, 24).Masked()
			if _, ok := seen[network]; ok {
				continue
			}
			seen[network] = struct{}{}
			out = append(out, network)
		}
	}
	return out
}
