package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bx-treasury/internal/config"
	"bx-treasury/internal/house"
)

const (
	apiKey     = "api-secret"
	adminToken = "admin-secret"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(&config.Config{
		Port:             "0",
		DBPath:           filepath.Join(t.TempDir(), "house.sqlite"),
		APIKey:           apiKey,
		AdminToken:       adminToken,
		HouseAdmin:       "admin",
		LogLevel:         "error",
		ReserveMultiple:  10,
		SafetyMultiplier: 100,
		RedeemFeeBps:     30,
		MinRedeemFee:     1_000,
		PruneInterval:    time.Minute,
		SnapshotInterval: time.Minute,
		RetryInterval:    time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func call(t *testing.T, s *Server, method, path, body string, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

var (
	api   = map[string]string{"X-API-Key": apiKey}
	admin = map[string]string{"X-Admin-Token": adminToken}
)

func TestGuards(t *testing.T) {
	s := newTestServer(t)

	code, _ := call(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, s, http.MethodGet, "/api/equity/nav", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = call(t, s, http.MethodPost, "/admin/games", `{}`, map[string]string{"X-Admin-Token": "nope"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestHouseFlow(t *testing.T) {
	s := newTestServer(t)

	code, _ := call(t, s, http.MethodPost, "/api/wallet/credit", `{"address":"lp","amount":1000000000}`, api)
	require.Equal(t, http.StatusOK, code)
	code, _ = call(t, s, http.MethodPost, "/api/wallet/credit", `{"address":"alice","amount":10000000}`, api)
	require.Equal(t, http.StatusOK, code)

	code, body := call(t, s, http.MethodPost, "/api/equity/deposit", `{"investor":"lp","amount":1000000000}`, api)
	require.Equal(t, http.StatusOK, code, body)

	code, body = call(t, s, http.MethodGet, "/api/equity/nav", "", api)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1", body["nav_display"])

	code, body = call(t, s, http.MethodPost, "/admin/games",
		`{"id":"dice","owner":"op","name":"Dice","version":1,"min_bet":1000,"max_bet":1000000,"house_edge_bps":100}`, admin)
	require.Equal(t, http.StatusCreated, code, body)

	code, body = call(t, s, http.MethodPost, "/admin/games",
		`{"id":"dice","owner":"op","min_bet":1000,"max_bet":1000000}`, admin)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, string(house.ErrGameAlreadyRegistered.Code), body["code"])

	code, body = call(t, s, http.MethodPost, "/admin/tables", `{"game":"dice","engine":"dice"}`, admin)
	require.Equal(t, http.StatusCreated, code, body)

	code, body = call(t, s, http.MethodPost, "/api/casino/play",
		`{"game":"dice","player":"alice","bet":10000,"multiplier":20000,"client_seed":"seed"}`, api)
	require.Equal(t, http.StatusOK, code, body)
	bet := body["bet"].(map[string]interface{})
	assert.Equal(t, "alice", bet["player"])
	assert.Equal(t, float64(0), bet["sequence"])

	code, _ = call(t, s, http.MethodPost, "/api/casino/play",
		`{"game":"dice","player":"alice","bet":1,"multiplier":20000}`, api)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = call(t, s, http.MethodGet, "/api/bets/alice:0", "", api)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["settled"])

	code, _ = call(t, s, http.MethodGet, "/api/bets/alice:9", "", api)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = call(t, s, http.MethodGet, "/api/bets/garbage", "", api)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = call(t, s, http.MethodGet, "/api/treasury", "", api)
	require.Equal(t, http.StatusOK, code)
	comp := body["composition"].(map[string]interface{})
	assert.Equal(t, float64(s.House.BankrollValue()), comp["total"])

	code, _ = call(t, s, http.MethodPost, "/api/equity/redeem", `{"investor":"lp","tokens":2000000000}`, api)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = call(t, s, http.MethodDelete, "/admin/games/dice", "", admin)
	assert.Equal(t, http.StatusOK, code)

	s.bus.Wait()
	code, _ = call(t, s, http.MethodGet, "/admin/audit?limit=5", "", admin)
	assert.Equal(t, http.StatusOK, code)
}

func TestRecoversFromPanics(t *testing.T) {
	s := newTestServer(t)
	s.App().Get("/panic", func(*fiber.Ctx) error { panic("handler blew up") })

	code, _ := call(t, s, http.MethodGet, "/panic", "", nil)
	assert.Equal(t, http.StatusInternalServerError, code)

	code, _ = call(t, s, http.MethodGet, "/api/casino/leaderboard?limit=-1", "", api)
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
}
