package arp

import (
	"encoding/binary"
	"fmt"
)

// DispatchHeaderLen is the size of the prefix shared by every ARP frame.
const DispatchHeaderLen = 4

// Operation is the ARP opcode.
type Operation uint16

const (
	OpRequest Operation = 1
	OpReply   Operation = 2
)

func (op Operation) String() string {
	switch op {
	case OpRequest:
		return "request"
	case OpReply:
		return "reply"
	default:
		return fmt.Sprintf("op(%d)", uint16(op))
	}
}

// DispatchHeader is the family-independent prefix used to route an inbound
// frame to its engine.
type DispatchHeader struct {
	HardwareType uint16
	ProtocolType uint16
}

// DecodeDispatchHeader reads the first DispatchHeaderLen bytes of b.
func DecodeDispatchHeader(b []byte) (DispatchHeader, error) {
	if len(b) < DispatchHeaderLen {
		return DispatchHeader{}, ErrMalformed
	}
	return DispatchHeader{
		HardwareType: binary.BigEndian.Uint16(b[0:2]),
		ProtocolType: binary.BigEndian.Uint16(b[2:4]),
	}, nil
}

// Header is a complete ARP header for address family A.
type Header[A comparable] struct {
	HardwareType   uint16
	ProtocolType   uint16
	HardwareLen    uint8
	ProtocolLen    uint8
	Operation      Operation
	SenderHardware EthernetAddr
	SenderProtocol A
	TargetHardware EthernetAddr
	TargetProtocol A
}

// HeaderSize returns the encoded size of a Header whose protocol addresses
// are width bytes wide.
func HeaderSize(width int) int {
	return 8 + 2*(EthernetAddrLen+width)
}

// Encode returns the wire form of h.
func (h Header[A]) Encode(f Family[A]) []byte {
	return h.AppendTo(make([]byte, 0, HeaderSize(f.Width())), f)
}

// AppendTo appends the wire form of h to b.
func (h Header[A]) AppendTo(b []byte, f Family[A]) []byte {
	w := f.Width()
	off := len(b)
	b = append(b, make([]byte, HeaderSize(w))...)
	p := b[off:]

	binary.BigEndian.PutUint16(p[0:2], h.HardwareType)
	binary.BigEndian.PutUint16(p[2:4], h.ProtocolType)
	p[4] = h.HardwareLen
	p[5] = h.ProtocolLen
	binary.BigEndian.PutUint16(p[6:8], uint16(h.Operation))
	p = p[8:]
	copy(p, h.SenderHardware[:])
	p = p[EthernetAddrLen:]
	f.Put(p[:w], h.SenderProtocol)
	p = p[w:]
	copy(p, h.TargetHardware[:])
	p = p[EthernetAddrLen:]
	f.Put(p[:w], h.TargetProtocol)
	return b
}

// DecodeHeader parses a full header from b. It fails with ErrMalformed when
// b is shorter than the header or when the address length fields do not
// match Ethernet and f. Bytes past the header are ignored.
func DecodeHeader[A comparable](b []byte, f Family[A]) (Header[A], error) {
	var h Header[A]
	w := f.Width()
	if len(b) < HeaderSize(w) {
		return h, ErrMalformed
	}

	h.HardwareType = binary.BigEndian.Uint16(b[0:2])
	h.ProtocolType = binary.BigEndian.Uint16(b[2:4])
	h.HardwareLen = b[4]
	h.ProtocolLen = b[5]
	if int(h.HardwareLen) != EthernetAddrLen || int(h.ProtocolLen) != w {
		return h, ErrMalformed
	}
	h.Operation = Operation(binary.BigEndian.Uint16(b[6:8]))
	p := b[8:]
	copy(h.SenderHardware[:], p[:EthernetAddrLen])
	p = p[EthernetAddrLen:]
	h.SenderProtocol = f.Read(p[:w])
	p = p[w:]
	copy(h.TargetHardware[:], p[:EthernetAddrLen])
	p = p[EthernetAddrLen:]
	h.TargetProtocol = f.Read(p[:w])
	return h, nil
}
