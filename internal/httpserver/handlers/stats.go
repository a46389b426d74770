package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bfstats/internal/stats"
)

var functionName = regexp.MustCompile(`^[a-z][a-z0-9]{0,63}$`)

func statsError(w http.ResponseWriter, lg *zap.SugaredLogger, res *stats.Result, err error) {
	switch {
	case errors.Is(err, stats.ErrServer) && res != nil:
		respondStatus(w, http.StatusBadGateway, res)
	case errors.Is(err, stats.ErrUnknownMode), errors.Is(err, stats.ErrBadAuthPID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "stats service timeout", http.StatusGatewayTimeout)
	default:
		lg.Warnw("stats query", "error", err)
		http.Error(w, "stats service unavailable", http.StatusBadGateway)
	}
}

// StatsQuery forwards the query string to the named stats function.
func StatsQuery(sc *stats.Client, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn := chi.URLParam(r, "function")
		if !functionName.MatchString(fn) {
			http.Error(w, "invalid function", http.StatusBadRequest)
			return
		}
		res, err := sc.Query(r.Context(), fn, r.URL.Query())
		if err != nil {
			statsError(w, lg, res, err)
			return
		}
		respondJSON(w, res)
	}
}

func PlayerAwards(sw *stats.Wrapper, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, err := strconv.ParseUint(chi.URLParam(r, "pid"), 10, 32)
		if err != nil {
			http.Error(w, "invalid pid", http.StatusBadRequest)
			return
		}
		recs, err := sw.Awards(r.Context(), uint32(pid))
		if err != nil {
			statsError(w, lg, nil, err)
			return
		}
		respondJSON(w, recs)
	}
}

func PlayerSearch(sw *stats.Wrapper, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nick := r.URL.Query().Get("nick")
		if nick == "" {
			http.Error(w, "nick required", http.StatusBadRequest)
			return
		}
		recs, err := sw.PlayerSearch(r.Context(), nick)
		if err != nil {
			statsError(w, lg, nil, err)
			return
		}
		respondJSON(w, recs)
	}
}

func PlayerInfo(sw *stats.Wrapper, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode := r.URL.Query().Get("mode")
		if mode == "" {
			mode = "ovr"
		}
		recs, err := sw.PlayerInfo(r.Context(), mode)
		if err != nil {
			statsError(w, lg, nil, err)
			return
		}
		respondJSON(w, recs)
	}
}

func BackendInfo(sw *stats.Wrapper, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := sw.BackendInfo(r.Context())
		if err != nil {
			statsError(w, lg, nil, err)
			return
		}
		respondJSON(w, recs)
	}
}
