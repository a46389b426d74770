// Package checksum provides the 16-bit checksum sealed into auth tokens.
package checksum

// Poly is the CRC-16/CCITT generator polynomial, x^16 + x^12 + x^5 + 1.
const Poly = 0x1021

// Init is the register preset.
const Init = 0xffff

var table = func() (t [256]uint16) {
	for i := range t {
		crc := uint16(i) << 8
		for k := 0; k < 8; k++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ Poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}()

// Table returns a copy of the byte-wise lookup table.
func Table() [256]uint16 { return table }

// Update continues a CRC-16/CCITT-FALSE computation over data.
func Update(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc = crc<<8 ^ table[byte(crc>>8)^b]
	}
	return crc
}

// CRC16 returns the CRC-16/CCITT-FALSE of data (no reflection, no final
// xor). The result always fits in 16 bits; it is widened to match the
// token assembler's checksum contract.
func CRC16(data []byte) uint32 {
	return uint32(Update(Init, data))
}
