package neighbor

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"slices"

	"github.com/projectdiscovery/arpx/pkg/arp"
	errorutil "github.com/projectdiscovery/utils/errors"
	psnet "github.com/shirou/gopsutil/v3/net"
)

var ErrNoInterface = errors.New("neighbor: no usable interface")

// Interface is what the resolver needs to know about a local interface.
type Interface struct {
	Name         string
	Index        int
	HardwareAddr arp.EthernetAddr
	// Addr is the first IPv4 address, invalid when there is none
	Addr   netip.Addr
	Prefix netip.Prefix
}

// LocalInterface looks name up, or picks the first up, non-loopback
// Ethernet interface with an IPv4 address when name is empty.
func LocalInterface(name string) (*Interface, error) {
	stats, err := psnet.Interfaces()
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("could not list interfaces")
	}
	return selectInterface(stats, name)
}

// NetInterface returns the net.Interface the transports open.
func (i *Interface) NetInterface() (*net.Interface, error) {
	iface, err := net.InterfaceByName(i.Name)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("could not find interface %s", i.Name)
	}
	return iface, nil
}

func selectInterface(stats psnet.InterfaceStatList, name string) (*Interface, error) {
	for _, stat := range stats {
		if name != "" && stat.Name != name {
			continue
		}

		iface, err := fromStat(stat)
		if name != "" {
			if err != nil {
				return nil, fmt.Errorf("interface %s: %w", name, err)
			}
			return iface, nil
		}
		if err != nil || !usable(stat) || !iface.Addr.IsValid() {
			continue
		}
		return iface, nil
	}

	if name != "" {
		return nil, fmt.Errorf("%w: %s not found", ErrNoInterface, name)
	}
	return nil, ErrNoInterface
}

func fromStat(stat psnet.InterfaceStat) (*Interface, error) {
	hw, err := arp.ParseEthernetAddr(stat.HardwareAddr)
	if err != nil {
		return nil, fmt.Errorf("no ethernet address")
	}

	iface := &Interface{
		Name:         stat.Name,
		Index:        stat.Index,
		HardwareAddr: hw,
	}
	for _, a := range stat.Addrs {
		prefix, err := netip.ParsePrefix(a.Addr)
		if err != nil || !prefix.Addr().Is4() {
			continue
		}
		iface.Addr = prefix.Addr()
		iface.Prefix = prefix.Masked()
		break
	}
	return iface, nil
}

func usable(stat psnet.InterfaceStat) bool {
	return slices.Contains(stat.Flags, "up") && !slices.Contains(stat.Flags, "loopback")
}
