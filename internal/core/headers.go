// Package core holds the wire-level constants shared by the gateway's
// middleware and proxy layers.
package core

const (
	// HeaderAPIContract carries the logical api contract a request targets
	HeaderAPIContract = "X-WorldBuilder-Api-Contract"

	// HeaderRequestID carries the request identifier across hops
	HeaderRequestID = "X-Request-Id"
)
