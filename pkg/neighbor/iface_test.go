package neighbor

import (
	"net/netip"
	"testing"

	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/require"
)

func TestSelectInterface(t *testing.T) {
	stats := psnet.InterfaceStatList{
		{Index: 1, Name: "lo", Flags: []string{"up", "loopback"}, Addrs: psnet.InterfaceAddrList{{Addr: "127.0.0.1/8"}}},
		{Index: 2, Name: "wg0", Flags: []string{"up"}, Addrs: psnet.InterfaceAddrList{{Addr: "10.8.0.2/24"}}},
		{Index: 3, Name: "eth0", HardwareAddr: "aa:bb:cc:dd:ee:ff", Flags: []string{"up", "broadcast"}, Addrs: psnet.InterfaceAddrList{
			{Addr: "fe80::1/64"},
			{Addr: "192.168.1.10/24"},
		}},
		{Index: 4, Name: "eth1", HardwareAddr: "aa:bb:cc:dd:ee:01", Flags: []string{"broadcast"}},
	}

	iface, err := selectInterface(stats, "")
	require.NoError(t, err)
	require.Equal(t, "eth0", iface.Name)
	require.Equal(t, 3, iface.Index)
	require.Equal(t, "aa:bb:cc:dd:ee:ff", iface.HardwareAddr.String())
	require.Equal(t, netip.MustParseAddr("192.168.1.10"), iface.Addr)
	require.Equal(t, netip.MustParsePrefix("192.168.1.0/24"), iface.Prefix)

	// a named interface may be down and unaddressed
	iface, err = selectInterface(stats, "eth1")
	require.NoError(t, err)
	require.False(t, iface.Addr.IsValid())

	_, err = selectInterface(stats, "wg0")
	require.ErrorContains(t, err, "no ethernet address")

	_, err = selectInterface(stats, "eth9")
	require.ErrorIs(t, err, ErrNoInterface)

	_, err = selectInterface(stats[:2], "")
	require.ErrorIs(t, err, ErrNoInterface)
}
