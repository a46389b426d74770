package authtoken

import (
	"encoding/binary"

	"bfstats/internal/authcipher"
)

// Marker is the fixed byte at offset 4 of every token plaintext.
const Marker = 0x64

// Byte offsets within the plaintext block.
const (
	offTimestamp = 0
	offMarker    = 4
	offID        = 8
	offServer    = 12
	offChecksum  = 14
)

// ChecksumLen is the number of leading plaintext bytes covered by the
// checksum.
const ChecksumLen = offChecksum

// Plaintext is the decoded content of a token before encryption.
// All multi-byte fields are little-endian, the checksum included.
type Plaintext struct {
	Timestamp uint32
	ID        uint32
	Server    bool
	Checksum  uint16
}

// Bytes lays p out as a cipher block. Bytes 5-7 and 13 stay zero.
func (p Plaintext) Bytes() authcipher.Block {
	var b authcipher.Block
	binary.LittleEndian.PutUint32(b[offTimestamp:], p.Timestamp)
	b[offMarker] = Marker
	binary.LittleEndian.PutUint32(b[offID:], p.ID)
	if p.Server {
		b[offServer] = 1
	}
	binary.LittleEndian.PutUint16(b[offChecksum:], p.Checksum)
	return b
}

// ChecksumInput returns the bytes the checksum is computed over.
func (p Plaintext) ChecksumInput() []byte {
	b := p.Bytes()
	return b[:ChecksumLen]
}

// ParsePlaintext reads a plaintext block back. The marker and checksum
// are not checked.
func ParsePlaintext(b authcipher.Block) Plaintext {
	return Plaintext{
		Timestamp: binary.LittleEndian.Uint32(b[offTimestamp:]),
		ID:        binary.LittleEndian.Uint32(b[offID:]),
		Server:    b[offServer] != 0,
		Checksum:  binary.LittleEndian.Uint16(b[offChecksum:]),
	}
}
