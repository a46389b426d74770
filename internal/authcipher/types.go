// Package authcipher implements the fixed-key block cipher used to seal
// stats-service auth tokens.
//
// The cipher is table driven: each of the nine main rounds is four lookups
// per output word into fused substitution/diffusion tables, and the final
// round substitutes through the S-box alone. The key schedule is static
// data; there is no key setup and no decryption.
package authcipher

import "encoding/binary"

const (
	// BlockSize is the cipher block size in bytes.
	BlockSize = 16
	// Rounds is the number of rounds, the last of which skips diffusion.
	Rounds = 10
)

// Block is one 16-byte cipher block, read as four little-endian words.
type Block [BlockSize]byte

// RoundKeySet is the expanded key schedule, round keys 0 through Rounds.
type RoundKeySet [Rounds + 1][4]uint32

// CombinedTable maps a byte to the fused SubBytes+MixColumns word for one
// column position.
type CombinedTable [256]uint32

// SBox maps a byte to its substituted value.
type SBox [256]byte

// Word returns word i of b.
func (b *Block) Word(i int) uint32 {
	return binary.LittleEndian.Uint32(b[4*i:])
}

// SetWord stores w as word i of b.
func (b *Block) SetWord(i int, w uint32) {
	binary.LittleEndian.PutUint32(b[4*i:], w)
}

// SBoxTable returns a copy of the substitution box.
func SBoxTable() SBox { return sbox }

// CombinedTables returns a copy of the four per-column round tables.
func CombinedTables() [4]CombinedTable { return te }

// RoundKeys returns a copy of the key schedule.
func RoundKeys() RoundKeySet { return encKeys }

// Key returns round key 0 as bytes. The rest of the schedule is the
// AES-128 expansion of this key.
func Key() (k [BlockSize]byte) {
	for i, w := range encKeys[0] {
		binary.LittleEndian.PutUint32(k[4*i:], w)
	}
	return k
}
