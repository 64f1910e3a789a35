// Package arp resolves network-layer addresses to Ethernet addresses for a
// userspace network stack.
//
// A Dispatcher is the single entry and exit point for the resolution traffic
// of one network interface. Engines register with it by protocol type and
// push every outbound frame into its FIFO, which the link layer drains with
// GetPacket.
//
// An Engine owns the address cache and the table of in-flight resolutions
// for one address family:
//   - a cache hit resolves a lookup immediately
//   - the first miss for an address broadcasts a query and arms a periodic
//     retry ticker
//   - further misses queue up to MaxWaiters futures behind the same query
//   - a reply (or Learn) settles every queued future at once
//   - each tick re-sends the query and fails the futures queued so far with
//     ErrTimeout, the resolution itself is kept until an answer arrives
//
// One Dispatcher and its engines form one shard. Shards share nothing.
package arp
