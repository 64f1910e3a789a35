package arp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	frames  [][]byte
	forward bool
}

func (h *recordingHandler) Receive(frame []byte) {
	h.frames = append(h.frames, frame)
}

func (h *recordingHandler) Forward(hash *ForwardHash, frame []byte, off int) bool {
	if !h.forward {
		return false
	}
	hash.Push(frame[off+2 : off+4]...)
	return true
}

func TestDispatcherRegistration(t *testing.T) {
	d := NewDispatcher(staticIface(localMAC))
	h := &recordingHandler{}

	require.NoError(t, d.Add(0x0800, h))
	require.ErrorIs(t, d.Add(0x0800, &recordingHandler{}), ErrHandlerExists)

	d.Del(0x0800)
	d.Del(0x0800)
	require.NoError(t, d.Add(0x0800, h))
	require.Equal(t, localMAC, d.L2Self())
}

func TestDispatcherRouting(t *testing.T) {
	sink := newCountingSink()
	d := NewDispatcher(staticIface(localMAC), WithMetricSink(sink))
	v4 := &recordingHandler{}
	require.NoError(t, d.Add(0x0800, v4))

	tests := []struct {
		name      string
		frame     []byte
		delivered bool
	}{
		{name: "registered protocol", frame: []byte{0x00, 0x01, 0x08, 0x00, 0xaa}, delivered: true},
		{name: "unregistered protocol", frame: []byte{0x00, 0x01, 0x86, 0xdd, 0xaa}},
		{name: "shorter than dispatch header", frame: []byte{0x00, 0x01, 0x08}},
		{name: "empty", frame: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(v4.frames)
			d.ProcessPacket(tt.frame, remoteMAC)
			if tt.delivered {
				require.Len(t, v4.frames, before+1)
				require.Equal(t, tt.frame, v4.frames[before])
				return
			}
			require.Len(t, v4.frames, before)
		})
	}
	require.EqualValues(t, 3, sink.get(MetricArpDropCount))
}

func TestDispatcherOutboundQueue(t *testing.T) {
	d := NewDispatcher(staticIface(localMAC))

	_, ok := d.GetPacket()
	require.False(t, ok)
	select {
	case <-d.Ready():
		t.Fatal("ready signalled on empty queue")
	default:
	}

	for i := byte(0); i < 3; i++ {
		d.enqueue(Packet{EtherType: EtherTypeARP, To: BroadcastEthernet, Payload: []byte{i}})
	}
	require.Equal(t, 3, d.Len())

	select {
	case <-d.Ready():
	default:
		t.Fatal("ready not signalled")
	}

	for i := byte(0); i < 3; i++ {
		p, ok := d.GetPacket()
		require.True(t, ok)
		require.Equal(t, []byte{i}, p.Payload)
		require.Equal(t, EtherTypeARP, p.EtherType)
	}
	_, ok = d.GetPacket()
	require.False(t, ok)
	require.Zero(t, d.Len())
}

func TestDispatcherForward(t *testing.T) {
	d := NewDispatcher(staticIface(localMAC))
	frame := []byte{0xff, 0xff, 0x00, 0x01, 0x08, 0x00, 0x06, 0x04}

	var hash ForwardHash
	require.False(t, d.Forward(&hash, frame, 2), "no handler")

	h := &recordingHandler{}
	require.NoError(t, d.Add(0x0800, h))
	require.False(t, d.Forward(&hash, frame, 2), "handler declined")

	h.forward = true
	require.True(t, d.Forward(&hash, frame, 2))
	require.Equal(t, ForwardHash{0x08, 0x00}, hash)

	require.False(t, d.Forward(&hash, frame, len(frame)+1))
	require.False(t, d.Forward(&hash, frame, len(frame)-1))
}

func TestEngineDeclinesForward(t *testing.T) {
	fx := newFixture(t)
	frame := replyFrame(remoteMAC, remoteIP, selfIP)

	var hash ForwardHash
	require.False(t, fx.d.Forward(&hash, frame, 0))
	require.Empty(t, hash)
}
