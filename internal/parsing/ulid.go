package parsing

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Parse IDs are ULIDs: 48-bit millisecond timestamp plus 80 bits of
// randomness, Crockford Base32 encoded to 26 characters. Sortable by
// creation time, no external dependency needed.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	idMu   sync.Mutex
	idLast uint64
	idSeq  uint16
)

func newParseID() string {
	idMu.Lock()
	defer idMu.Unlock()

	ts := uint64(time.Now().UnixMilli())
	if ts == idLast {
		idSeq++
	} else {
		idLast = ts
		idSeq = 0
	}

	var b [16]byte
	b[0] = byte(ts >> 40)
	b[1] = byte(ts >> 32)
	b[2] = byte(ts >> 24)
	b[3] = byte(ts >> 16)
	b[4] = byte(ts >> 8)
	b[5] = byte(ts)
	rand.Read(b[6:])
	// Sequence keeps IDs unique within the same millisecond.
	binary.BigEndian.PutUint16(b[6:8], idSeq)

	// 130 bits (two leading pad bits + 128) emit exactly 26 base32 chars.
	var out [26]byte
	acc, bits, i := uint32(0), uint(2), 0
	for _, by := range b {
		acc = acc<<8 | uint32(by)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[i] = crockford[(acc>>bits)&31]
			i++
		}
	}
	return string(out[:])
}
