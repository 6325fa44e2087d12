// Package requestid generates the request identifiers carried through the
// publish-ingress rejection metric and log fields.
package requestid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
)

var fallbackCounter atomic.Uint64

// New returns a 16-character hex request ID. When the system randomness
// source fails, a process-local counter keeps IDs unique within the process.
func New() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("fallback-%016x", fallbackCounter.Add(1))
	}
	return hex.EncodeToString(buf[:])
}
