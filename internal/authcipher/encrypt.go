package authcipher

import (
	"errors"
	"fmt"
)

// ErrBlockSize is returned when an input is not exactly one block long.
var ErrBlockSize = errors.New("authcipher: input must be exactly 16 bytes")

// shiftRows picks, for every output word i, the four bytes the round
// consumes: byte j comes from word (i+j) mod 4. This is the row shift of
// the state matrix, done on selection instead of as a separate pass.
func shiftRows(t [4]uint32) (s [4][4]byte) {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			s[i][j] = byte(t[(i+j)&3] >> (8 * j))
		}
	}
	return s
}

// EncryptBlock encrypts src into dst. dst and src may alias.
func EncryptBlock(dst, src *Block) {
	var t [4]uint32
	for i := range t {
		t[i] = src.Word(i) ^ encKeys[0][i]
	}

	for r := 1; r < Rounds; r++ {
		s := shiftRows(t)
		k := &encKeys[r]
		for i := range t {
			t[i] = te[0][s[i][0]] ^ te[1][s[i][1]] ^ te[2][s[i][2]] ^ te[3][s[i][3]] ^ k[i]
		}
	}

	s := shiftRows(t)
	k := &encKeys[Rounds]
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			dst[4*i+j] = sbox[s[i][j]] ^ byte(k[i]>>(8*j))
		}
	}
}

// Encrypt encrypts a single block given as a slice.
func Encrypt(src []byte) (Block, error) {
	var in, out Block
	if len(src) != BlockSize {
		return out, fmt.Errorf("%w: got %d", ErrBlockSize, len(src))
	}
	copy(in[:], src)
	EncryptBlock(&out, &in)
	return out, nil
}

// Cipher adapts the block function to slice based callers. It has no
// state; the zero value is ready to use.
type Cipher struct{}

// BlockSize returns BlockSize.
func (Cipher) BlockSize() int { return BlockSize }

// Encrypt encrypts the first block of src into dst.
func (Cipher) Encrypt(dst, src []byte) {
	if len(src) < BlockSize {
		panic("authcipher: input not full block")
	}
	if len(dst) < BlockSize {
		panic("authcipher: output not full block")
	}
	var in, out Block
	copy(in[:], src)
	EncryptBlock(&out, &in)
	copy(dst, out[:])
}
