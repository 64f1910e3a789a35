package arp

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
)

const (
	// EthernetAddrLen is the width of a link-layer address on the wire.
	EthernetAddrLen = 6

	// HardwareTypeEthernet is the ARP hardware type for Ethernet.
	HardwareTypeEthernet uint16 = 1

	// EtherTypeARP is the EtherType carrying resolution frames.
	EtherTypeARP uint16 = 0x0806

	// ProtocolTypeIPv4 is the ARP protocol type of IPv4.
	ProtocolTypeIPv4 uint16 = 0x0800
)

// EthernetAddr is a 6 byte link-layer address. Unlike net.HardwareAddr it is
// comparable and can be used as a map value without copying.
type EthernetAddr [EthernetAddrLen]byte

// BroadcastEthernet is the link-layer broadcast address.
var BroadcastEthernet = EthernetAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// EthernetAddrFrom converts hw into an EthernetAddr.
func EthernetAddrFrom(hw net.HardwareAddr) (EthernetAddr, error) {
	var addr EthernetAddr
	if len(hw) != EthernetAddrLen {
		return addr, fmt.Errorf("arp: hardware address %q is not %d bytes", hw.String(), EthernetAddrLen)
	}
	copy(addr[:], hw)
	return addr, nil
}

// ParseEthernetAddr parses any MAC-48 notation accepted by net.ParseMAC.
func ParseEthernetAddr(s string) (EthernetAddr, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return EthernetAddr{}, err
	}
	return EthernetAddrFrom(hw)
}

// HardwareAddr returns a copy of a as a net.HardwareAddr.
func (a EthernetAddr) HardwareAddr() net.HardwareAddr {
	hw := make(net.HardwareAddr, EthernetAddrLen)
	copy(hw, a[:])
	return hw
}

func (a EthernetAddr) String() string {
	return net.HardwareAddr(a[:]).String()
}

func (a EthernetAddr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *EthernetAddr) UnmarshalText(text []byte) error {
	addr, err := ParseEthernetAddr(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// IsBroadcast reports whether a is ff:ff:ff:ff:ff:ff.
func (a EthernetAddr) IsBroadcast() bool {
	return a == BroadcastEthernet
}

// Family describes an L3 address family to the resolution engine. A is the
// in-memory address representation and must be comparable so it can key the
// cache.
//
// Width is the fixed number of bytes an address occupies on the wire. Put
// must write exactly Width bytes and Read must only read Width bytes.
//
// Canonical returns the form of addr used as a cache key, which must be
// the form Read produces for the same wire bytes. It reports false for
// addresses the family cannot put on the wire.
type Family[A comparable] interface {
	ProtocolType() uint16
	Width() int
	Broadcast() A
	Canonical(addr A) (A, bool)
	Put(b []byte, addr A)
	Read(b []byte) A
}

// IPv4Family is the Family of IPv4 addresses, using netip.Addr. The
// broadcast sentinel is 255.255.255.255.
type IPv4Family struct{}

// IPv4 is the shared IPv4Family value.
var IPv4 Family[netip.Addr] = IPv4Family{}

var ipv4Broadcast = netip.AddrFrom4([4]byte{255, 255, 255, 255})

func (IPv4Family) ProtocolType() uint16 { return ProtocolTypeIPv4 }

func (IPv4Family) Width() int { return 4 }

func (IPv4Family) Broadcast() netip.Addr { return ipv4Broadcast }

// Canonical unmaps IPv4-mapped IPv6 addresses and rejects everything that
// is not IPv4.
func (IPv4Family) Canonical(addr netip.Addr) (netip.Addr, bool) {
	addr = addr.Unmap()
	if !addr.Is4() {
		return netip.Addr{}, false
	}
	return addr, true
}

// Put writes the 4 byte form of addr. IPv4-mapped IPv6 addresses are
// unmapped; anything else that is not IPv4 is written as 0.0.0.0.
func (IPv4Family) Put(b []byte, addr netip.Addr) {
	addr = addr.Unmap()
	if !addr.Is4() {
		binary.BigEndian.PutUint32(b, 0)
		return
	}
	a4 := addr.As4()
	copy(b[:4], a4[:])
}

func (IPv4Family) Read(b []byte) netip.Addr {
	return netip.AddrFrom4([4]byte(b[:4]))
}
