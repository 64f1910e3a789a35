package arp

// Handler is what a Dispatcher knows about a registered engine.
//
// The Dispatcher holds a non-owning reference: a handler MUST be removed with
// Dispatcher.Del before it is torn down.
type Handler interface {
	// Receive is handed the complete ARP payload of an inbound frame whose
	// protocol type matched the registration. Malformed frames are dropped
	// by the handler without error.
	Receive(frame []byte)

	// Forward lets an external classifier compute a dispatch hash over the
	// frame starting at off without consuming it. Returning false declines.
	Forward(hash *ForwardHash, frame []byte, off int) bool
}

// ForwardHash accumulates the bytes a classifier hashes to pick a shard.
type ForwardHash []byte

// Push appends b to the hash input.
func (h *ForwardHash) Push(b ...byte) {
	*h = append(*h, b...)
}
