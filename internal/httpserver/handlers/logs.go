package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"bfstats/internal/auth"
	"bfstats/internal/models"
	"bfstats/internal/store"
)

const maxLogs = 200

// MyLogs returns recent audit rows. Operators see their own rows;
// administrators may pass ?all=1.
func MyLogs(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := maxLogs
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = min(n, maxLogs)
		}
		claims := auth.FromContext(r.Context())
		uid := claims.Subject
		if r.URL.Query().Get("all") == "1" && claims.HasRole(models.RoleAdministrator) {
			uid = ""
		}
		logs, err := st.ListAudit(r.Context(), uid, limit)
		if err != nil {
			storeError(w, lg, err)
			return
		}
		respondJSON(w, logs)
	}
}
