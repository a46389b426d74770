package handlers

import (
	"errors"
	"net/http"

	hex "github.com/tmthrgd/go-hex"
	"go.uber.org/zap"

	"bfstats/internal/authcipher"
	"bfstats/internal/authtoken"
	"bfstats/internal/store"
	"bfstats/internal/util"
)

type tokenReq struct {
	PID       uint32 `json:"pid"`
	Server    bool   `json:"server"`
	Timestamp uint32 `json:"timestamp"`
}

type tokenRes struct {
	Token        string `json:"token"`
	PlaintextHex string `json:"plaintext_hex"`
	Timestamp    uint32 `json:"timestamp"`
	Checksum     uint16 `json:"checksum"`
}

func issueToken(w http.ResponseWriter, r *http.Request, st store.Store, asm *authtoken.Assembler, lg *zap.SugaredLogger, req tokenReq, serverID *string) {
	p, err := asm.Assemble(req.PID, req.Server, req.Timestamp)
	if err != nil {
		if errors.Is(err, authtoken.ErrChecksumOverflow) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		lg.Errorw("assemble token", "pid", req.PID, "error", err)
		http.Error(w, "token error", http.StatusInternalServerError)
		return
	}
	pt := p.Bytes()
	res := tokenRes{
		Token:        authtoken.Seal(p),
		PlaintextHex: hex.EncodeToString(pt[:]),
		Timestamp:    p.Timestamp,
		Checksum:     p.Checksum,
	}
	writeAudit(st, lg, r, "ISSUE_TOKEN", serverID, map[string]any{"pid": req.PID, "server": req.Server, "timestamp": p.Timestamp})
	respondJSON(w, res)
}

// IssueToken mints a token for any player id. A zero timestamp means now.
func IssueToken(st store.Store, asm *authtoken.Assembler, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenReq
		if !decodeJSON(w, r, &req) {
			return
		}
		issueToken(w, r, st, asm, lg, req, nil)
	}
}

// EncryptBlock runs the raw block cipher over one 16-byte block.
func EncryptBlock(lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlaintextHex string `json:"plaintext_hex"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		raw, err := util.DecodeHex(req.PlaintextHex)
		if err != nil {
			http.Error(w, "plaintext_hex: "+err.Error(), http.StatusBadRequest)
			return
		}
		ct, err := authcipher.Encrypt(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondJSON(w, map[string]string{"ciphertext_hex": hex.EncodeToString(ct[:])})
	}
}
