package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bfstats/internal/auth"
	"bfstats/internal/models"
	"bfstats/internal/store"
)

func ListUsers(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := st.ListUsers(r.Context())
		if err != nil {
			storeError(w, lg, err)
			return
		}
		respondJSON(w, users)
	}
}

func CreateUser(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string   `json:"email"`
			Password string   `json:"password"`
			Roles    []string `json:"roles"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || req.Password == "" {
			http.Error(w, "email/password required", http.StatusBadRequest)
			return
		}
		if len(req.Roles) == 0 {
			req.Roles = []string{models.RoleOperator}
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		u := &models.User{Email: req.Email, PasswordHash: hash, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		if err := st.CreateUser(r.Context(), u, req.Roles); err != nil {
			storeError(w, lg, err)
			return
		}
		writeAudit(st, lg, r, "CREATE_USER", nil, map[string]any{"user_id": u.ID, "email": u.Email})
		respondStatus(w, http.StatusCreated, u)
	}
}

func UpdateUser(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    *string  `json:"email"`
			IsActive *bool    `json:"is_active"`
			Password *string  `json:"password"`
			Roles    []string `json:"roles"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := st.UserByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			storeError(w, lg, err)
			return
		}
		if req.Email != nil {
			u.Email = strings.TrimSpace(*req.Email)
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if req.Password != nil && *req.Password != "" {
			if u.PasswordHash, err = auth.HashPassword(*req.Password); err != nil {
				http.Error(w, "hash error", http.StatusInternalServerError)
				return
			}
		}
		u.UpdatedAt = time.Now()
		if err := st.SaveUser(r.Context(), u, req.Roles); err != nil {
			storeError(w, lg, err)
			return
		}
		writeAudit(st, lg, r, "UPDATE_USER", nil, map[string]any{"user_id": u.ID})
		respondJSON(w, u)
	}
}

func DeleteUser(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == auth.Subject(r.Context()) {
			http.Error(w, "cannot delete yourself", http.StatusBadRequest)
			return
		}
		if err := st.DeleteUser(r.Context(), id); err != nil {
			storeError(w, lg, err)
			return
		}
		writeAudit(st, lg, r, "DELETE_USER", nil, map[string]any{"user_id": id})
		respondJSON(w, map[string]any{"deleted": true})
	}
}
