package handlers

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"bfstats/internal/auth"
	"bfstats/internal/models"
	"bfstats/internal/store"
)

const maxBodySize = 1 << 20

func respondJSON(w http.ResponseWriter, v interface{}) {
	respondStatus(w, http.StatusOK, v)
}

func respondStatus(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func storeError(w http.ResponseWriter, lg *zap.SugaredLogger, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, store.ErrConflict):
		http.Error(w, "already exists", http.StatusConflict)
	default:
		lg.Errorw("store", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeAudit records action for the calling operator. Failures are logged
// and do not fail the request.
func writeAudit(st store.Store, lg *zap.SugaredLogger, r *http.Request, action string, serverID *string, md interface{}) {
	var uid *string
	if sub := auth.Subject(r.Context()); sub != "" {
		uid = &sub
	}
	l := &models.AuditLog{UserID: uid, ServerID: serverID, Action: action, Metadata: models.NewJSONB(md)}
	if err := st.WriteAudit(r.Context(), l); err != nil {
		lg.Warnw("audit write failed", "action", action, "error", err)
	}
}
