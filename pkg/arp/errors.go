package arp

import "errors"

var (
	ErrTimeout       = errors.New("arp: timeout")
	ErrQueueFull     = errors.New("arp: waiter queue is full")
	ErrClosed        = errors.New("arp: engine closed")
	ErrMalformed     = errors.New("arp: malformed frame")
	ErrHandlerExists = errors.New("arp: protocol type already registered")
	ErrNotReady      = errors.New("arp: future not settled")
	ErrInvalidAddr   = errors.New("arp: address not in family")
)
