package handlers

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bfstats/internal/authtoken"
	"bfstats/internal/models"
	"bfstats/internal/store"
)

const maxServerName = 64

type serverReq struct {
	Name    *string `json:"name"`
	PID     *uint32 `json:"pid"`
	Address *string `json:"address"`
}

func (req serverReq) apply(s *models.GameServer) (string, bool) {
	if req.Name != nil {
		s.Name = strings.TrimSpace(*req.Name)
	}
	if req.PID != nil {
		s.PID = *req.PID
	}
	if req.Address != nil {
		s.Address = strings.TrimSpace(*req.Address)
	}
	switch {
	case s.Name == "":
		return "name required", false
	case utf8.RuneCountInString(s.Name) > maxServerName:
		return "name must be <= 64 characters", false
	}
	return "", true
}

func CreateServer(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req serverReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.PID == nil {
			http.Error(w, "pid required", http.StatusBadRequest)
			return
		}
		s := &models.GameServer{CreatedAt: time.Now(), UpdatedAt: time.Now()}
		if msg, ok := req.apply(s); !ok {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		if err := st.CreateServer(r.Context(), s); err != nil {
			storeError(w, lg, err)
			return
		}
		writeAudit(st, lg, r, "CREATE_SERVER", &s.ID, map[string]any{"pid": s.PID})
		respondStatus(w, http.StatusCreated, s)
	}
}

func ListServers(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ss, err := st.ListServers(r.Context())
		if err != nil {
			storeError(w, lg, err)
			return
		}
		respondJSON(w, ss)
	}
}

func UpdateServer(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req serverReq
		if !decodeJSON(w, r, &req) {
			return
		}
		s, err := st.Server(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			storeError(w, lg, err)
			return
		}
		if msg, ok := req.apply(s); !ok {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		s.UpdatedAt = time.Now()
		if err := st.SaveServer(r.Context(), s); err != nil {
			storeError(w, lg, err)
			return
		}
		respondJSON(w, s)
	}
}

func DeleteServer(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := st.DeleteServer(r.Context(), id); err != nil {
			storeError(w, lg, err)
			return
		}
		writeAudit(st, lg, r, "DELETE_SERVER", &id, map[string]any{})
		respondJSON(w, map[string]any{"deleted": true})
	}
}

// ServerToken mints a server-flagged token for the registered server's
// player id at the current time.
func ServerToken(st store.Store, asm *authtoken.Assembler, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := st.Server(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			storeError(w, lg, err)
			return
		}
		issueToken(w, r, st, asm, lg, tokenReq{PID: s.PID, Server: true}, &s.ID)
	}
}
