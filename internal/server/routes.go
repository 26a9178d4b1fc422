package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"bazas-game/internal/database"
	"bazas-game/internal/shared"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	defaultRankingLimit = 20
	maxRankingLimit     = 100
)

// HistoryStore is the read side of the game history.
type HistoryStore interface {
	Games(ctx context.Context) ([]database.GameSummary, error)
	GamesByPlayer(ctx context.Context, name string) ([]database.GameSummary, error)
	Rounds(ctx context.Context, gameID string) ([]shared.RoundReport, error)
	Ranking(ctx context.Context, limit int) ([]database.PlayerStats, error)
}

// SetupRoutes builds the HTTP surface. store may be nil when no database is
// configured; the history endpoints then answer 503.
func SetupRoutes(hub *Hub, store HistoryStore, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", Healthz)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/rooms", GetRoomsHandler(hub))
		r.Get("/games", GetGamesHandler(store))
		r.Get("/games/player/{name}", GetGamesByPlayerHandler(store))
		r.Get("/games/{id}/rounds", GetRoundsHandler(store))
		r.Get("/ranking", GetRankingHandler(store))
	})
	return r
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func GetRoomsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hub.Registry().List())
	}
}

func GetGamesHandler(store HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "history is disabled", http.StatusServiceUnavailable)
			return
		}
		games, err := store.Games(r.Context())
		if err != nil {
			http.Error(w, "failed to fetch games", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func GetGamesByPlayerHandler(store HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "history is disabled", http.StatusServiceUnavailable)
			return
		}
		name := chi.URLParam(r, "name")
		if name == "" {
			http.Error(w, "player name is required", http.StatusBadRequest)
			return
		}
		games, err := store.GamesByPlayer(r.Context(), name)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				http.Error(w, "no games found for player", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to fetch games", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func GetRoundsHandler(store HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "history is disabled", http.StatusServiceUnavailable)
			return
		}
		rounds, err := store.Rounds(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				http.Error(w, "no rounds found for game", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to fetch rounds", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, rounds)
	}
}

func GetRankingHandler(store HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "history is disabled", http.StatusServiceUnavailable)
			return
		}
		limit := defaultRankingLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > maxRankingLimit {
				http.Error(w, "limit must be between 1 and 100", http.StatusBadRequest)
				return
			}
			limit = n
		}
		ranking, err := store.Ranking(r.Context(), limit)
		if err != nil {
			http.Error(w, "failed to fetch ranking", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, ranking)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", time.Since(start))
		})
	}
}
