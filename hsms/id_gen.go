package hsms

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync/atomic"
)

// SystemBytesGenerator generates the system bytes of outgoing messages.
//
// The counter starts at a cryptographically random value and is incremented atomically, so it's
// safe for concurrent use. It wraps around after 2^32 values; zero is never returned, since a
// zero system bytes value marks a primary message that still needs one.
type SystemBytesGenerator struct {
	id atomic.Uint32
}

// NewSystemBytesGenerator creates a generator seeded from crypto/rand.
func NewSystemBytesGenerator() *SystemBytesGenerator {
	gen := &SystemBytesGenerator{}

	var buf [4]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err == nil {
		gen.id.Store(binary.LittleEndian.Uint32(buf[:]))
	}

	return gen
}

// NewSystemBytesGeneratorFrom creates a generator whose first value is start+1.
func NewSystemBytesGeneratorFrom(start uint32) *SystemBytesGenerator {
	gen := &SystemBytesGenerator{}
	gen.id.Store(start)

	return gen
}

// Next returns the next system bytes value.
func (g *SystemBytesGenerator) Next() uint32 {
	for {
		if id := g.id.Add(1); id != 0 {
			return id
		}
	}
}

// ToSystemBytes converts id to its 4-byte big-endian representation.
func ToSystemBytes(id uint32) []byte {
	systemBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(systemBytes, id)

	return systemBytes
}
