package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"bfstats/internal/store"
	"bfstats/internal/vector"
)

type generateReq struct {
	TestMode string `json:"test_mode"`
	Count    int    `json:"count"`
}

// GenerateVectors returns a vector as JSON, or as the text file format
// when ?format=txt.
func GenerateVectors(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateReq
		if !decodeJSON(w, r, &req) {
			return
		}
		v, err := vector.Generate(vector.GenParams{Mode: vector.TestMode(req.TestMode), Count: req.Count})
		if err != nil {
			if errors.Is(err, vector.ErrTestMode) || errors.Is(err, vector.ErrCount) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			lg.Errorw("generate vectors", "error", err)
			http.Error(w, "generate error", http.StatusInternalServerError)
			return
		}
		writeAudit(st, lg, r, "VECTOR_GENERATE", nil, map[string]any{"test_mode": v.TestMode, "count": len(v.Records)})
		if r.URL.Query().Get("format") == "txt" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = io.WriteString(w, v.ToTXT())
			return
		}
		respondJSON(w, v)
	}
}

// ValidateVectors checks an uploaded vector file, sent either as the
// multipart field "file" or as the raw request body.
func ValidateVectors(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body io.Reader
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			if err := r.ParseMultipartForm(maxBodySize); err != nil {
				http.Error(w, "multipart parse error", http.StatusBadRequest)
				return
			}
			file, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer file.Close()
			body = file
		} else {
			body = http.MaxBytesReader(w, r.Body, maxBodySize)
		}

		recs, err := vector.ParseFile(body)
		if err != nil {
			http.Error(w, "parse error: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(recs) == 0 {
			http.Error(w, "no records", http.StatusBadRequest)
			return
		}
		result := vector.Validate(recs)
		writeAudit(st, lg, r, "VECTOR_VALIDATE", nil, map[string]any{"algorithm": vector.Algorithm, "total": result.Total, "failed": result.Failed})
		respondJSON(w, result)
	}
}
