// Package authtoken builds the auth tokens the stats service expects on
// every request: a 16-byte plaintext carrying a timestamp, a player or
// server id and a checksum, sealed with authcipher and printed with a
// URL-safe base64 alphabet.
package authtoken

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bfstats/internal/authcipher"
	"bfstats/internal/checksum"
)

// TokenLen is the length of every encoded token.
const TokenLen = 24

// Encoding is standard base64 with '+' and '/' replaced by '[' and ']'
// and '=' padding replaced by '_'. Its output needs no URL escaping.
var Encoding = base64.NewEncoding("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789[]").WithPadding('_')

var (
	// ErrChecksumOverflow is returned when the checksum function yields a
	// value that does not fit the two-byte checksum field. The value is
	// never truncated.
	ErrChecksumOverflow = errors.New("authtoken: checksum does not fit in 16 bits")

	// ErrNilChecksum is returned by NewAssembler for a nil checksum function.
	ErrNilChecksum = errors.New("authtoken: checksum function is nil")
)

// ChecksumFunc computes the plaintext checksum. Equal inputs must give
// equal outputs.
type ChecksumFunc func(data []byte) uint32

// Assembler builds tokens. It is safe for concurrent use.
type Assembler struct {
	sum ChecksumFunc
	now func() time.Time
	lg  *zap.SugaredLogger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithChecksum replaces the default CRC-16 checksum.
func WithChecksum(f ChecksumFunc) Option {
	return func(a *Assembler) { a.sum = f }
}

// WithClock sets the time source used when no timestamp is given.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithLogger enables debug logging of issued tokens.
func WithLogger(lg *zap.SugaredLogger) Option {
	return func(a *Assembler) { a.lg = lg }
}

// NewAssembler returns an Assembler using checksum.CRC16 and the wall
// clock unless overridden.
func NewAssembler(opts ...Option) (*Assembler, error) {
	a := &Assembler{
		sum: checksum.CRC16,
		now: time.Now,
		lg:  zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.sum == nil {
		return nil, ErrNilChecksum
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.lg == nil {
		a.lg = zap.NewNop().Sugar()
	}
	return a, nil
}

// Assemble fills in a plaintext for id. A zero timestamp is replaced by
// the current time.
func (a *Assembler) Assemble(id uint32, server bool, timestamp uint32) (Plaintext, error) {
	if timestamp == 0 {
		timestamp = uint32(a.now().Unix())
	}
	p := Plaintext{Timestamp: timestamp, ID: id, Server: server}
	sum := a.sum(p.ChecksumInput())
	if sum > 0xffff {
		return Plaintext{}, fmt.Errorf("%w: %#x", ErrChecksumOverflow, sum)
	}
	p.Checksum = uint16(sum)
	return p, nil
}

// Seal encrypts p and encodes the ciphertext.
func Seal(p Plaintext) string {
	in := p.Bytes()
	var out authcipher.Block
	authcipher.EncryptBlock(&out, &in)
	return Encoding.EncodeToString(out[:])
}

// MakeToken returns the printable token for id.
func (a *Assembler) MakeToken(id uint32, server bool, timestamp uint32) (string, error) {
	p, err := a.Assemble(id, server, timestamp)
	if err != nil {
		return "", err
	}
	tok := Seal(p)
	a.lg.Debugw("auth token issued", "pid", id, "server", server, "timestamp", p.Timestamp)
	return tok, nil
}

var defaultAssembler = &Assembler{
	sum: checksum.CRC16,
	now: time.Now,
	lg:  zap.NewNop().Sugar(),
}

// MakeToken builds a token with the default assembler.
func MakeToken(id uint32, server bool, timestamp uint32) (string, error) {
	return defaultAssembler.MakeToken(id, server, timestamp)
}
