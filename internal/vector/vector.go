// Package vector generates and checks known-answer files for the auth
// token block cipher.
package vector

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	hex "github.com/tmthrgd/go-hex"

	"bfstats/internal/authcipher"
)

const Algorithm = "AES-128-ECB"

type TestMode string

const (
	// KAT is the all-zero block followed by single-bit blocks.
	KAT TestMode = "KAT"
	// MMT is random blocks.
	MMT TestMode = "MMT"
)

const (
	DefaultCount = 10
	MaxKATCount  = 1 + authcipher.BlockSize*8
	MaxCount     = 4096
)

var (
	ErrTestMode = errors.New("vector: unsupported test mode")
	ErrCount    = errors.New("vector: count out of range")
)

type GenParams struct {
	Mode  TestMode
	Count int
	// Rand feeds MMT plaintexts. Defaults to crypto/rand.
	Rand io.Reader
}

type Record struct {
	Count      int    `json:"count"`
	Key        string `json:"key,omitempty"`
	Plaintext  string `json:"plaintext"`
	Ciphertext string `json:"ciphertext"`
}

type TestVector struct {
	Algorithm string   `json:"algorithm"`
	TestMode  string   `json:"test_mode"`
	Key       string   `json:"key"`
	Records   []Record `json:"records"`
}

// KeyHex is the fixed cipher key in hex.
func KeyHex() string {
	k := authcipher.Key()
	return hex.EncodeToString(k[:])
}

func kat(i int) authcipher.Block {
	var b authcipher.Block
	if i > 0 {
		bit := i - 1
		b[bit/8] = 0x80 >> (bit % 8)
	}
	return b
}

func Generate(p GenParams) (TestVector, error) {
	if p.Count <= 0 {
		p.Count = DefaultCount
	}
	mode := TestMode(strings.ToUpper(strings.TrimSpace(string(p.Mode))))
	if mode == "" {
		mode = KAT
	}
	switch mode {
	case KAT:
		if p.Count > MaxKATCount {
			return TestVector{}, fmt.Errorf("%w: %d > %d", ErrCount, p.Count, MaxKATCount)
		}
	case MMT:
		if p.Count > MaxCount {
			return TestVector{}, fmt.Errorf("%w: %d > %d", ErrCount, p.Count, MaxCount)
		}
	default:
		return TestVector{}, fmt.Errorf("%w %q", ErrTestMode, p.Mode)
	}
	if p.Rand == nil {
		p.Rand = rand.Reader
	}

	key := KeyHex()
	out := TestVector{
		Algorithm: Algorithm,
		TestMode:  string(mode),
		Key:       key,
		Records:   make([]Record, 0, p.Count),
	}
	for i := 0; i < p.Count; i++ {
		var pt authcipher.Block
		if mode == KAT {
			pt = kat(i)
		} else if _, err := io.ReadFull(p.Rand, pt[:]); err != nil {
			return TestVector{}, fmt.Errorf("read random: %w", err)
		}
		var ct authcipher.Block
		authcipher.EncryptBlock(&ct, &pt)
		out.Records = append(out.Records, Record{
			Count:      i,
			Key:        key,
			Plaintext:  hex.EncodeToString(pt[:]),
			Ciphertext: hex.EncodeToString(ct[:]),
		})
	}
	return out, nil
}

// ToTXT renders the vector in the bracketed section format read by
// ParseFile.
func (v TestVector) ToTXT() string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(v.Algorithm)
	b.WriteString(" ")
	b.WriteString(v.TestMode)
	b.WriteString("\n\n[ENCRYPT]\n\n")
	for _, r := range v.Records {
		b.WriteString("COUNT = ")
		b.WriteString(strconv.Itoa(r.Count))
		b.WriteString("\n")
		if r.Key != "" {
			b.WriteString("KEY = ")
			b.WriteString(strings.ToLower(r.Key))
			b.WriteString("\n")
		}
		b.WriteString("PLAINTEXT = ")
		b.WriteString(strings.ToLower(r.Plaintext))
		b.WriteString("\n")
		b.WriteString("CIPHERTEXT = ")
		b.WriteString(strings.ToLower(r.Ciphertext))
		b.WriteString("\n\n")
	}
	return b.String()
}
