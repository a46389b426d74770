package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"bfstats/internal/auth"
	"bfstats/internal/models"
	"bfstats/internal/store"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(st store.Store, iss *auth.Issuer, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := st.UserByEmail(r.Context(), strings.TrimSpace(req.Email))
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			storeError(w, lg, err)
			return
		}
		if err != nil || !u.IsActive || auth.CheckPassword(u.PasswordHash, req.Password) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		signed, err := iss.Sign(u.ID, u.RoleNames())
		if err != nil {
			lg.Errorw("sign", "error", err)
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}
		sess := &models.Session{JTI: signed.JWTID, UserID: u.ID, ExpiresAt: signed.ExpiresAt, CreatedAt: time.Now()}
		if err := st.CreateSession(r.Context(), sess); err != nil {
			storeError(w, lg, err)
			return
		}
		lg.Infow("login", "user_id", u.ID)
		respondJSON(w, map[string]any{"token": signed.Token, "expires_at": signed.ExpiresAt})
	}
}

func Logout(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jti := auth.FromContext(r.Context()).JWTID
		if err := st.RevokeSession(r.Context(), jti, time.Now()); err != nil {
			storeError(w, lg, err)
			return
		}
		respondJSON(w, map[string]any{"logged_out": true})
	}
}

func Me(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := st.UserByID(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			storeError(w, lg, err)
			return
		}
		respondJSON(w, u)
	}
}

func ChangePassword(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Current string `json:"current"`
			New     string `json:"new"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.New == "" {
			http.Error(w, "new password required", http.StatusBadRequest)
			return
		}
		u, err := st.UserByID(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			storeError(w, lg, err)
			return
		}
		if auth.CheckPassword(u.PasswordHash, req.Current) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if u.PasswordHash, err = auth.HashPassword(req.New); err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		u.UpdatedAt = time.Now()
		if err := st.SaveUser(r.Context(), u, nil); err != nil {
			storeError(w, lg, err)
			return
		}
		writeAudit(st, lg, r, "CHANGE_PASSWORD", nil, map[string]any{})
		respondJSON(w, map[string]any{"updated": true})
	}
}
