// Package afpacket is a link.Transport over Linux AF_PACKET sockets. It needs
// no libpcap, which makes it the default on Linux.
package afpacket

// pollTimeout is how long, in milliseconds, a read waits before
// re-checking its context.
const pollTimeout = 100
