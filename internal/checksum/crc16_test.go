package checksum

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC16(t *testing.T) {
	tokenHead, err := hex.DecodeString("0032244564000000878ad7040100")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   []byte
		want uint32
	}{
		{"empty", nil, 0xffff},
		{"single", []byte("A"), 0xb915},
		{"check", []byte("123456789"), 0x29b1},
		{"zero head", make([]byte, 14), 0xa96a},
		{"token head", tokenHead, 0x3e3d},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CRC16(tt.in))
		})
	}
}

func TestUpdateIncremental(t *testing.T) {
	data := []byte("123456789")
	crc := Update(Init, data[:4])
	crc = Update(crc, data[4:])
	assert.Equal(t, uint16(0x29b1), crc)
}

func TestCRC16Range(t *testing.T) {
	buf := make([]byte, 64)
	for i := 0; i < 1000; i++ {
		buf[i%len(buf)] = byte(i * 31)
		require.LessOrEqual(t, CRC16(buf), uint32(0xffff))
	}
}

func TestTable(t *testing.T) {
	tab := Table()
	assert.Equal(t, uint16(0x0000), tab[0])
	assert.Equal(t, uint16(0x1021), tab[1])
	assert.Equal(t, uint16(0x1ef0), tab[0xff])
}
