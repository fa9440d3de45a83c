package daemon

import "math/rand/v2"

// newSessionID and newClientID draw from a non-cryptographic source per
// §3: collisions within a live daemon are a programmer error, not a
// security concern, so plain PRNG output is sufficient. newSessionID
// retries on a zero draw, since 0 is reserved to mean "no session
// requested" on the wire (§6's AttachRequest); client ids carry no such
// reservation and may be 0.
func newSessionID() uint32 {
	for {
		if id := rand.Uint32(); id != 0 {
			return id
		}
	}
}

func newClientID() uint32 {
	return rand.Uint32()
}
