package vector

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	hex "github.com/tmthrgd/go-hex"

	"bfstats/internal/authcipher"
)

var (
	ErrSection = errors.New("vector: unsupported section")
	ErrSyntax  = errors.New("vector: malformed line")
)

type Mismatch struct {
	Count    int    `json:"count"`
	Reason   string `json:"reason"`
	Expected string `json:"expected,omitempty"`
	Got      string `json:"got,omitempty"`
}

type ValidationResult struct {
	Total    int        `json:"total"`
	Passed   int        `json:"passed"`
	Failed   int        `json:"failed"`
	Failures []Mismatch `json:"failures,omitempty"`
}

// OK reports whether every record passed.
func (r ValidationResult) OK() bool { return r.Failed == 0 }

// ParseFile reads records written by ToTXT. Blank lines and '#' comments
// are skipped. Only the [ENCRYPT] section is accepted.
func ParseFile(r io.Reader) ([]Record, error) {
	var (
		recs []Record
		cur  *Record
		line int
	)
	flush := func() {
		if cur != nil {
			recs = append(recs, *cur)
			cur = nil
		}
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
			flush()
			if section := strings.ToUpper(strings.Trim(text, "[]")); section != "ENCRYPT" {
				return nil, fmt.Errorf("%w %q at line %d", ErrSection, section, line)
			}
			continue
		}
		k, v, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("%w at line %d", ErrSyntax, line)
		}
		k = strings.ToUpper(strings.TrimSpace(k))
		v = strings.ToLower(strings.TrimSpace(v))

		if k == "COUNT" {
			flush()
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%w at line %d: %v", ErrSyntax, line, err)
			}
			cur = &Record{Count: n}
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("%w at line %d: %s before COUNT", ErrSyntax, line, k)
		}
		switch k {
		case "KEY":
			cur.Key = v
		case "PLAINTEXT":
			cur.Plaintext = v
		case "CIPHERTEXT":
			cur.Ciphertext = v
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return recs, nil
}

func decodeBlock(s string) (authcipher.Block, error) {
	var b authcipher.Block
	raw, err := hex.DecodeString(s)
	if err != nil {
		return b, err
	}
	if len(raw) != authcipher.BlockSize {
		return b, fmt.Errorf("%d bytes", len(raw))
	}
	copy(b[:], raw)
	return b, nil
}

// Validate re-encrypts every plaintext and compares it with the recorded
// ciphertext. Records naming a different key fail without encrypting.
func Validate(recs []Record) ValidationResult {
	res := ValidationResult{Total: len(recs)}
	key := KeyHex()
	fail := func(m Mismatch) {
		res.Failed++
		res.Failures = append(res.Failures, m)
	}

	for _, r := range recs {
		if r.Key != "" && !strings.EqualFold(r.Key, key) {
			fail(Mismatch{Count: r.Count, Reason: "key", Expected: key, Got: strings.ToLower(r.Key)})
			continue
		}
		pt, err := decodeBlock(r.Plaintext)
		if err != nil {
			fail(Mismatch{Count: r.Count, Reason: "plaintext: " + err.Error()})
			continue
		}
		want, err := decodeBlock(r.Ciphertext)
		if err != nil {
			fail(Mismatch{Count: r.Count, Reason: "ciphertext: " + err.Error()})
			continue
		}
		var got authcipher.Block
		authcipher.EncryptBlock(&got, &pt)
		if !bytes.Equal(got[:], want[:]) {
			fail(Mismatch{
				Count:    r.Count,
				Reason:   "ciphertext",
				Expected: hex.EncodeToString(want[:]),
				Got:      hex.EncodeToString(got[:]),
			})
			continue
		}
		res.Passed++
	}
	return res
}
