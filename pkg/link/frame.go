package link

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/projectdiscovery/arpx/pkg/arp"
	errorutil "github.com/projectdiscovery/utils/errors"
)

// Frame is a decoded Ethernet II frame.
type Frame struct {
	Dst       arp.EthernetAddr
	Src       arp.EthernetAddr
	EtherType uint16
	Payload   []byte
}

// EncodeFrame wraps payload in an Ethernet II header. Short frames are padded
// to the 60 byte minimum.
func EncodeFrame(dst, src arp.EthernetAddr, etherType uint16, payload []byte) ([]byte, error) {
	eth := &layers.Ethernet{
		DstMAC:       dst.HardwareAddr(),
		SrcMAC:       src.HardwareAddr(),
		EthernetType: layers.EthernetType(etherType),
	}
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, eth, gopacket.Payload(payload)); err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("could not encode frame to %s", dst)
	}
	return buf.Bytes(), nil
}

// DecodeFrame parses the Ethernet header of raw. Payload aliases raw.
func DecodeFrame(raw []byte) (Frame, error) {
	if len(raw) < 14 {
		return Frame{}, ErrShortFrame
	}
	var eth layers.Ethernet
	if err := eth.DecodeFromBytes(raw, gopacket.NilDecodeFeedback); err != nil {
		return Frame{}, errorutil.NewWithErr(err).Msgf("could not decode %d byte frame", len(raw))
	}
	var f Frame
	copy(f.Dst[:], eth.DstMAC)
	copy(f.Src[:], eth.SrcMAC)
	f.EtherType = uint16(eth.EthernetType)
	f.Payload = eth.Payload
	return f, nil
}
