package tangle

import "errors"

var (
	ErrUnknownFunction  = errors.New("tangle: unknown exported function")
	ErrUnknownPeer      = errors.New("tangle: message from unknown peer")
	ErrAlreadyConnected = errors.New("tangle: SetHeap ignored, already connected")
	ErrMalformedPayload = errors.New("tangle: malformed payload")
	ErrNotConnected     = errors.New("tangle: not connected")
	ErrDisconnected     = errors.New("tangle: transport is disconnected")
)
