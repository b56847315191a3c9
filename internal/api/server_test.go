package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/battlesim/internal/api"
	"github.com/cory-johannsen/battlesim/internal/config"
	"github.com/cory-johannsen/battlesim/internal/game/battle"
	"github.com/cory-johannsen/battlesim/internal/game/catalog"
	"github.com/cory-johannsen/battlesim/internal/game/creature"
	"github.com/cory-johannsen/battlesim/internal/game/dice"
	"github.com/cory-johannsen/battlesim/internal/observability"
)

func init() { gin.SetMode(gin.TestMode) }

type randomChoosers struct{}

func (randomChoosers) Chooser(battle.Difficulty) battle.MoveChooser { return battle.RandomChooser{} }

func uniform(n int) *creature.Stats {
	return &creature.Stats{HP: n, Attack: n, Defense: n, Speed: n, SpecialAttack: n, SpecialDefense: n}
}

func newServer(t *testing.T) *api.Server {
	t.Helper()
	mem, err := catalog.NewMemory([]*catalog.Species{
		{
			Number: 1, Name: "titan", Stage: creature.StageFinalEvolution, Base: uniform(255),
			Moves: []creature.Move{
				{Name: "crush", Power: creature.PowerOf(250), Category: creature.Physical},
				{Name: "glare", Power: creature.UnknownPower(), Category: creature.Special},
			},
		},
		{
			Number: 2, Name: "sapling", Stage: creature.StageBasic, Base: uniform(1),
			Moves: []creature.Move{
				{Name: "tap", Power: creature.PowerOf(10), Category: creature.Physical},
			},
		},
	})
	require.NoError(t, err)
	cfg := config.BattleConfig{DefaultLevel: 50, MaxRoster: 3, MaxMoves: 4, SuggestionLimit: 5}
	return api.NewServer(mem, randomChoosers{}, cfg, zaptest.NewLogger(t),
		api.WithSourceFactory(func() dice.Source { return dice.NewSeededSource(3) }),
		api.WithTracer(observability.NoopTracer()),
	)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func titanVsSapling() api.CreateBattleRequest {
	return api.CreateBattleRequest{
		Difficulty: "hard",
		Player:     []api.MemberSpec{{Species: "titan", Moves: []string{"crush"}}},
		Opponent:   []api.MemberSpec{{Species: "sapling", Level: 10, Moves: []string{"tap"}}},
	}
}

func createBattle(t *testing.T, h http.Handler) battle.Snapshot {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/battles", titanVsSapling())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[battle.Snapshot](t, rec)
}

func TestHealthz(t *testing.T) {
	rec := do(t, newServer(t).Router(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestSpecies(t *testing.T) {
	h := newServer(t).Router()

	rec := do(t, h, http.MethodGet, "/api/species?q=TI", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"titan"}, decode[map[string][]string](t, rec)["matches"])

	rec = do(t, h, http.MethodGet, "/api/species/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sapling", decode[catalog.Species](t, rec).Name)

	rec = do(t, h, http.MethodGet, "/api/species/zzz", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreview(t *testing.T) {
	h := newServer(t).Router()

	rec := do(t, h, http.MethodPost, "/api/preview", api.PreviewRequest{Species: "titan", Move: "crush"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.PreviewResponse](t, rec)
	assert.Equal(t, 50, resp.Level)
	assert.Positive(t, resp.Damage)

	rec = do(t, h, http.MethodPost, "/api/preview", api.PreviewRequest{Species: "titan", Move: "tap"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/preview", map[string]string{"species": "titan"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "move is required")
}

func TestCreateBattle(t *testing.T) {
	s := newServer(t)
	snap := createBattle(t, s.Router())

	assert.NotEqual(t, uuid.Nil, snap.ID)
	assert.Equal(t, battle.PhaseOngoing, snap.Phase)
	assert.Equal(t, battle.DifficultyHard, snap.Difficulty)
	require.NotNil(t, snap.Player.Active)
	assert.Equal(t, "titan", snap.Player.Active.ID)
	assert.Equal(t, 50, snap.Player.Active.Level)
	require.NotNil(t, snap.Opponent.Active)
	assert.Equal(t, 10, snap.Opponent.Active.Level)
	assert.Equal(t, 1, s.Registry().Len())
}

func TestCreateBattle_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"bad difficulty", api.CreateBattleRequest{
			Difficulty: "nightmare",
			Player:     []api.MemberSpec{{Species: "titan", Moves: []string{"crush"}}},
			Opponent:   []api.MemberSpec{{Species: "sapling", Moves: []string{"tap"}}},
		}},
		{"member without moves", api.CreateBattleRequest{
			Difficulty: "easy",
			Player:     []api.MemberSpec{{Species: "titan"}},
			Opponent:   []api.MemberSpec{{Species: "sapling", Moves: []string{"tap"}}},
		}},
		{"unknown species", api.CreateBattleRequest{
			Difficulty: "easy",
			Player:     []api.MemberSpec{{Species: "zzz", Moves: []string{"crush"}}},
			Opponent:   []api.MemberSpec{{Species: "sapling", Moves: []string{"tap"}}},
		}},
		{"unusable move", api.CreateBattleRequest{
			Difficulty: "easy",
			Player:     []api.MemberSpec{{Species: "titan", Moves: []string{"glare"}}},
			Opponent:   []api.MemberSpec{{Species: "sapling", Moves: []string{"tap"}}},
		}},
		{"empty opponent", api.CreateBattleRequest{
			Difficulty: "easy",
			Player:     []api.MemberSpec{{Species: "titan", Moves: []string{"crush"}}},
			Opponent:   []api.MemberSpec{},
		}},
		{"not json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t)
			rec := do(t, s.Router(), http.MethodPost, "/api/battles", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
			assert.Zero(t, s.Registry().Len())
		})
	}
}

func TestSubmitIntent(t *testing.T) {
	h := newServer(t).Router()
	snap := createBattle(t, h)
	path := fmt.Sprintf("/api/battles/%s/intents", snap.ID)

	rec := do(t, h, http.MethodPost, path, api.IntentRequest{Type: "move", MoveName: "glare"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "an unlearned move is unknown")

	rec = do(t, h, http.MethodPost, path, api.IntentRequest{Type: "dance"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, path, api.IntentRequest{Type: "replace", CombatantID: "titan"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "replace is only legal after a faint")

	rec = do(t, h, http.MethodPost, path, api.IntentRequest{Type: "move", MoveName: "crush"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[api.IntentResponse](t, rec)
	assert.Equal(t, battle.PhaseConcluded, resp.Snapshot.Phase)
	assert.Equal(t, battle.OutcomePlayerWin, resp.Snapshot.Outcome)
	require.NotEmpty(t, resp.Events)
	assert.Equal(t, battle.EventDamage, resp.Events[0].Kind)

	rec = do(t, h, http.MethodPost, path, api.IntentRequest{Type: "move", MoveName: "crush"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/battles/%s", snap.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, resp.Snapshot.Log, decode[battle.Snapshot](t, rec).Log)
}

func TestBattleLookup(t *testing.T) {
	h := newServer(t).Router()
	snap := createBattle(t, h)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/battles/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/battles/not-a-uuid", nil).Code)

	path := "/api/battles/" + snap.ID.String()
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, path+"/intents",
		api.IntentRequest{Type: "move", MoveName: "crush"}).Code)
}

func TestStreamBattle(t *testing.T) {
	srv := httptest.NewServer(newServer(t).Router())
	defer srv.Close()
	snap := createBattle(t, srv.Config.Handler)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/battles/" + snap.ID.String() + "/stream"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first battle.Snapshot
	require.NoError(t, ws.ReadJSON(&first))
	assert.Equal(t, battle.PhaseOngoing, first.Phase)

	rec := do(t, srv.Config.Handler, http.MethodPost, "/api/battles/"+snap.ID.String()+"/intents",
		api.IntentRequest{Type: "move", MoveName: "crush"})
	require.Equal(t, http.StatusOK, rec.Code)

	var next battle.Snapshot
	require.NoError(t, ws.ReadJSON(&next))
	assert.Equal(t, battle.PhaseConcluded, next.Phase)
	assert.Equal(t, battle.OutcomePlayerWin, next.Outcome)

	_, _, err = ws.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "stream closes after the battle concludes: %v", err)
}

func TestStreamBattle_UnknownBattle(t *testing.T) {
	srv := httptest.NewServer(newServer(t).Router())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/battles/" + uuid.NewString() + "/stream"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", api.ErrBattleNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", catalog.ErrSpeciesNotFound), http.StatusNotFound},
		{battle.ErrBattleConcluded, http.StatusConflict},
		{fmt.Errorf("x: %w", battle.ErrUnknownMove), http.StatusUnprocessableEntity},
		{fmt.Errorf("x: %w", battle.ErrInvalidIntent), http.StatusBadRequest},
		{fmt.Errorf("%w: %w", battle.ErrInvalidRoster, catalog.ErrSpeciesNotFound), http.StatusBadRequest},
		{errors.Join(api.ErrBadRequest, errors.New("eof")), http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, api.StatusFor(tt.err), tt.err.Error())
	}
}
