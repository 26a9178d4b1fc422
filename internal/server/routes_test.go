package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazas-game/internal/database"
	"bazas-game/internal/protocol"
	"bazas-game/internal/shared"
)

type fakeStore struct {
	games     []database.GameSummary
	rounds    map[string][]shared.RoundReport
	ranking   []database.PlayerStats
	lastLimit int
	fail      bool
}

func (f *fakeStore) Games(ctx context.Context) ([]database.GameSummary, error) {
	if f.fail {
		return nil, errors.New("db down")
	}
	return f.games, nil
}

func (f *fakeStore) GamesByPlayer(ctx context.Context, name string) ([]database.GameSummary, error) {
	var out []database.GameSummary
	for _, g := range f.games {
		for _, p := range g.Players {
			if p.Name == name {
				out = append(out, g)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("games of %s: %w", name, database.ErrNotFound)
	}
	return out, nil
}

func (f *fakeStore) Rounds(ctx context.Context, gameID string) ([]shared.RoundReport, error) {
	r, ok := f.rounds[gameID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) Ranking(ctx context.Context, limit int) ([]database.PlayerStats, error) {
	f.lastLimit = limit
	return f.ranking, nil
}

func newRouter(t *testing.T, store HistoryStore) (http.Handler, *Hub) {
	t.Helper()
	hub := NewHub(log.New(io.Discard))
	return SetupRoutes(hub, store, log.New(io.Discard)), hub
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRoutes_Health(t *testing.T) {
	h, _ := newRouter(t, nil)
	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)
}

func TestRoutes_Rooms(t *testing.T) {
	h, hub := newRouter(t, nil)
	s, err := hub.Registry().Create("host", "Host", 3)
	require.NoError(t, err)

	w := get(t, h, "/api/rooms")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var rooms []protocol.RoomSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, s.Code(), rooms[0].Code)
	assert.Equal(t, 3, rooms[0].MaxSeats)
}

func TestRoutes_HistoryDisabled(t *testing.T) {
	h, _ := newRouter(t, nil)
	for _, path := range []string{"/api/games", "/api/games/player/ana", "/api/games/g1/rounds", "/api/ranking"} {
		assert.Equal(t, http.StatusServiceUnavailable, get(t, h, path).Code, path)
	}
}

func TestRoutes_Games(t *testing.T) {
	store := &fakeStore{
		games: []database.GameSummary{
			{ID: "g1", Code: "AAAAAA", Players: []database.GamePlayer{{Name: "ana"}, {Name: "luis"}}},
			{ID: "g2", Code: "BBBBBB", Players: []database.GamePlayer{{Name: "luis"}}},
		},
		rounds: map[string][]shared.RoundReport{"g1": {{Round: 1, CardCount: 1}}},
	}
	h, _ := newRouter(t, store)

	w := get(t, h, "/api/games")
	require.Equal(t, http.StatusOK, w.Code)
	var games []database.GameSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &games))
	assert.Len(t, games, 2)

	w = get(t, h, "/api/games/player/ana")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &games))
	require.Len(t, games, 1)
	assert.Equal(t, "g1", games[0].ID)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/games/player/nobody").Code)

	w = get(t, h, "/api/games/g1/rounds")
	require.Equal(t, http.StatusOK, w.Code)
	var rounds []shared.RoundReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rounds))
	assert.Len(t, rounds, 1)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/games/g2/rounds").Code)

	store.fail = true
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/api/games").Code)
}

func TestRoutes_RankingLimit(t *testing.T) {
	store := &fakeStore{ranking: []database.PlayerStats{{Name: "luis", RankingPoints: 6}}}
	h, _ := newRouter(t, store)

	w := get(t, h, "/api/ranking")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultRankingLimit, store.lastLimit)

	require.Equal(t, http.StatusOK, get(t, h, "/api/ranking?limit=5").Code)
	assert.Equal(t, 5, store.lastLimit)

	for _, bad := range []string{"0", "-1", "abc", "101"} {
		assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/ranking?limit="+bad).Code, bad)
	}
}
