//go:build linux

package afpacket

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestHtons(t *testing.T) {
	require.Equal(t, uint16(0x0608), htons(unix.ETH_P_ARP))
}

func TestOpenRequiresEthernetAddress(t *testing.T) {
	_, err := Open(&net.Interface{Name: "lo", Index: 1})
	require.Error(t, err)
}

func TestOpenLoopback(t *testing.T) {
	lo, err := net.InterfaceByName("lo")
	if err != nil {
		t.Skip("no loopback interface")
	}
	iface := *lo
	iface.HardwareAddr = net.HardwareAddr{0, 0, 0, 0, 0, 0}

	l, err := Open(&iface)
	if err != nil {
		t.Skipf("raw sockets unavailable: %v", err)
	}
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	require.Error(t, l.WriteFrame(make([]byte, 60)))
}
