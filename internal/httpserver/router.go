package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"bfstats/internal/auth"
	"bfstats/internal/authtoken"
	"bfstats/internal/httpserver/handlers"
	"bfstats/internal/models"
	"bfstats/internal/stats"
	"bfstats/internal/store"
)

type Deps struct {
	Store     store.Store
	Issuer    *auth.Issuer
	Assembler *authtoken.Assembler
	Stats     *stats.Client
	Logger    *zap.SugaredLogger
}

func NewRouter(d Deps) http.Handler {
	st, lg := d.Store, d.Logger
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	sw := stats.NewWrapper(d.Stats)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, requestLogger(lg))
	r.Post("/v1/auth/login", handlers.Login(st, d.Issuer, lg))
	r.Group(func(protected chi.Router) {
		protected.Use(auth.JWTAuth(d.Issuer, st))
		protected.Get("/v1/me", handlers.Me(st, lg))
		protected.Post("/v1/auth/logout", handlers.Logout(st, lg))
		protected.Post("/v1/auth/password", handlers.ChangePassword(st, lg))
		protected.Group(func(admin chi.Router) {
			admin.Use(auth.RequireRole(models.RoleAdministrator))
			admin.Get("/v1/admin/users", handlers.ListUsers(st, lg))
			admin.Post("/v1/admin/users", handlers.CreateUser(st, lg))
			admin.Patch("/v1/admin/users/{id}", handlers.UpdateUser(st, lg))
			admin.Delete("/v1/admin/users/{id}", handlers.DeleteUser(st, lg))
		})

		protected.Post("/v1/servers", handlers.CreateServer(st, lg))
		protected.Get("/v1/servers", handlers.ListServers(st, lg))
		protected.Patch("/v1/servers/{id}", handlers.UpdateServer(st, lg))
		protected.Delete("/v1/servers/{id}", handlers.DeleteServer(st, lg))
		protected.Post("/v1/servers/{id}/token", handlers.ServerToken(st, d.Assembler, lg))

		protected.Post("/v1/tokens", handlers.IssueToken(st, d.Assembler, lg))
		protected.Post("/v1/blocks/encrypt", handlers.EncryptBlock(lg))

		protected.Get("/v1/stats/backend", handlers.BackendInfo(sw, lg))
		protected.Get("/v1/stats/{function}", handlers.StatsQuery(d.Stats, lg))
		protected.Get("/v1/players/search", handlers.PlayerSearch(sw, lg))
		protected.Get("/v1/players/info", handlers.PlayerInfo(sw, lg))
		protected.Get("/v1/players/{pid}/awards", handlers.PlayerAwards(sw, lg))

		protected.Post("/v1/vectors/generate", handlers.GenerateVectors(st, lg))
		protected.Post("/v1/vectors/validate", handlers.ValidateVectors(st, lg))
		protected.Get("/v1/logs", handlers.MyLogs(st, lg))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}

// requestLogger logs each request through zap instead of the standard
// library logger.
func requestLogger(lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			lg.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
