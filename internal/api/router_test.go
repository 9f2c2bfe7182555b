package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jitsus/internal/game"
	"jitsus/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	status  server.Status
	players []server.PlayerInfo
	matches []game.Summary
}

func (f fakeSource) Status() server.Status         { return f.status }
func (f fakeSource) Players() []server.PlayerInfo  { return f.players }
func (f fakeSource) RecentMatches() []game.Summary { return f.matches }

func get(t *testing.T, r http.Handler, path string, out any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	src := fakeSource{
		status: server.Status{
			Running:       true,
			Address:       "127.0.0.1:6433",
			Connections:   3,
			MaxClients:    10,
			Players:       2,
			ActiveMatches: 1,
			StartedAt:     time.Now().Add(-time.Minute),
		},
		players: []server.PlayerInfo{{Name: "Alice", Rating: 1.5}},
		matches: []game.Summary{{MatchID: "m-1", PlayerA: "Alice", PlayerB: "Bob", ScoreA: 7, ScoreB: 2,
			OutcomeA: game.OutcomeWon, OutcomeB: game.OutcomeLost, Rounds: 6, Reason: game.ReasonComplete}},
	}
	r := SetupRouter(src)

	t.Run("status", func(t *testing.T) {
		var body map[string]any
		get(t, r, "/status", &body)
		require.Equal(t, true, body["running"])
		require.Equal(t, "127.0.0.1:6433", body["address"])
		require.EqualValues(t, 2, body["players_online"])
		require.EqualValues(t, 1, body["active_matches"])
		require.NotEmpty(t, body["uptime"])
	})

	t.Run("players", func(t *testing.T) {
		var body struct {
			Players []server.PlayerInfo `json:"players"`
		}
		get(t, r, "/players", &body)
		require.Equal(t, src.players, body.Players)
	})

	t.Run("matches", func(t *testing.T) {
		var body struct {
			Matches []game.Summary `json:"matches"`
		}
		get(t, r, "/matches", &body)
		require.Len(t, body.Matches, 1)
		require.Equal(t, "m-1", body.Matches[0].MatchID)
		require.Equal(t, game.ReasonComplete, body.Matches[0].Reason)
	})

	t.Run("unknown route", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}
