package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackjack-house-go/backend/internal/config"
	"blackjack-house-go/backend/internal/escrow"
	"blackjack-house-go/backend/internal/game/blackjack"
	"blackjack-house-go/backend/internal/ledger/devchain"
	"blackjack-house-go/backend/internal/middleware"
	"blackjack-house-go/backend/internal/payout"
	"blackjack-house-go/backend/internal/store"
	ws "blackjack-house-go/backend/pkg/websocket"
)

type testEnv struct {
	router *gin.Engine
	rounds *store.Rounds
	chain  *devchain.Chain
	cfg    config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		JWTSecret:  "test-secret",
		JWTIssuer:  "blackjack-house",
		JWTTTL:     time.Hour,
		HouseSeed:  "house-seed",
		MemoPrefix: "bj",
		Decks:      1,
		AppEnv:     "development",
	}

	rounds := store.NewRounds(store.NewMemory())
	chain := devchain.New(cfg.HouseSeed)
	gate := escrow.NewGate(chain, chain.HouseAddress(), cfg.MemoPrefix)
	dispatcher := payout.NewDispatcher(chain, rounds)

	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	r := gin.New()
	api := r.Group("/api")
	RegisterAuthRoutes(api, cfg)
	RegisterWalletRoutes(api, chain, chain, chain)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(cfg))
	RegisterRoundRoutes(protected, rounds, gate, dispatcher, NewRoundHub(hub), cfg)

	return &testEnv{router: r, rounds: rounds, chain: chain, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	resp := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return w.Code, resp
}

// session funds a fresh wallet and opens a session for it.
func (e *testEnv) session(t *testing.T, amount float64) (seed, address, token string) {
	t.Helper()
	seed, address, err := e.chain.NewWallet(context.Background())
	require.NoError(t, err)
	e.chain.Fund(address, amount)

	code, resp := e.do(t, http.MethodPost, "/api/auth/session", "", gin.H{"address": address})
	require.Equal(t, http.StatusOK, code)
	token, _ = resp["token"].(string)
	require.NotEmpty(t, token)
	return seed, address, token
}

// openRiggedRound creates a round over the API, then swaps in a shoe that
// deals the given ranks in order.
func (e *testEnv) openRiggedRound(t *testing.T, token string, bet float64, ranks ...blackjack.Rank) (roundID string, intent map[string]any) {
	t.Helper()
	code, resp := e.do(t, http.MethodPost, "/api/blackjack/rounds", token, gin.H{"bet": bet, "clientSeed": "e2e"})
	require.Equal(t, http.StatusOK, code)
	roundID, _ = resp["roundId"].(string)
	require.NotEmpty(t, roundID)
	require.NotEmpty(t, resp["shoeHash"])
	intent, _ = resp["escrowIntent"].(map[string]any)
	require.NotNil(t, intent)

	shoe := make([]blackjack.Card, len(ranks))
	for i, rk := range ranks {
		shoe[i] = blackjack.Card{Rank: rk, Suit: blackjack.Clubs, ID: fmt.Sprintf("e2e-%d", i)}
	}
	_, err := e.rounds.Update(context.Background(), roundID, func(r *blackjack.Round) error {
		r.Shoe = shoe
		r.Cursor = 0
		return nil
	})
	require.NoError(t, err)
	return roundID, intent
}

// fundEscrow pays the intent from the player wallet and returns the tx ID.
func (e *testEnv) fundEscrow(t *testing.T, seed string, intent map[string]any) string {
	t.Helper()
	code, resp := e.do(t, http.MethodPost, "/api/wallet/send", "", gin.H{
		"seed":        seed,
		"destination": intent["to"],
		"amount":      intent["amount"],
		"memo":        intent["memo"],
	})
	require.Equal(t, http.StatusOK, code, "escrow transfer: %v", resp)
	txID, _ := resp["txId"].(string)
	require.NotEmpty(t, txID)
	return txID
}

func (e *testEnv) balance(t *testing.T, address string) float64 {
	t.Helper()
	bal, err := e.chain.Balance(context.Background(), address, "")
	require.NoError(t, err)
	return bal.Amount
}

func TestRoundLifecycleStandAndWin(t *testing.T) {
	env := newTestEnv(t)
	seed, address, token := env.session(t, 100)

	// Player lands 19 against the dealer's soft 17.
	roundID, intent := env.openRiggedRound(t, token, 10, "9", "A", "10", "6", "K")

	// Dealing before escrow is funded must bounce.
	code, resp := env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/action", token, gin.H{"action": "deal"})
	assert.Equal(t, http.StatusPaymentRequired, code, "%v", resp)

	txID := env.fundEscrow(t, seed, intent)
	assert.Equal(t, 90.0, env.balance(t, address))

	code, resp = env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/escrow", token, gin.H{"step": 1, "txId": txID})
	require.Equal(t, http.StatusOK, code, "%v", resp)
	assert.Equal(t, float64(1), resp["escrowVerified"])
	assert.NotNil(t, resp["escrowIntent"], "step two intent offered once the base is funded")

	code, resp = env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/action", token, gin.H{"action": "deal"})
	require.Equal(t, http.StatusOK, code, "%v", resp)
	state := resp["state"].(map[string]any)
	assert.Equal(t, "player", state["phase"])
	assert.Len(t, state["player"], 2)
	assert.Len(t, state["dealer"], 1, "hole card stays hidden")
	assert.Empty(t, state["serverSeed"], "seed stays secret while play is live")

	code, resp = env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/action", token, gin.H{"action": "stand"})
	require.Equal(t, http.StatusOK, code, "%v", resp)
	state = resp["state"].(map[string]any)
	result := resp["result"].(map[string]any)
	assert.Equal(t, "over", state["phase"])
	assert.Equal(t, "player", result["outcome"])
	assert.Equal(t, 20.0, result["payout"])
	assert.Equal(t, true, state["paid"], "winnings dispatch with the resolving action")
	assert.NotEmpty(t, state["serverSeed"], "seed revealed at resolution")
	assert.Len(t, state["dealer"], 2)

	assert.Equal(t, 110.0, env.balance(t, address))

	// Retrying the payout endpoint must not pay again.
	code, resp = env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/payout", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["paid"])
	assert.Equal(t, 110.0, env.balance(t, address))
}

func TestRoundNaturalPaysThreeToTwo(t *testing.T) {
	env := newTestEnv(t)
	seed, address, token := env.session(t, 100)

	roundID, intent := env.openRiggedRound(t, token, 10, "A", "5", "K", "9")
	txID := env.fundEscrow(t, seed, intent)
	code, _ := env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/escrow", token, gin.H{"step": 1, "txId": txID})
	require.Equal(t, http.StatusOK, code)

	code, resp := env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/action", token, gin.H{"action": "deal"})
	require.Equal(t, http.StatusOK, code, "%v", resp)
	result := resp["result"].(map[string]any)
	assert.Equal(t, "player", result["outcome"])
	assert.Equal(t, 25.0, result["payout"])

	assert.Equal(t, 115.0, env.balance(t, address))
}

func TestDoubleNeedsSecondEscrowStep(t *testing.T) {
	env := newTestEnv(t)
	seed, address, token := env.session(t, 100)

	roundID, intent := env.openRiggedRound(t, token, 10, "5", "9", "6", "10", "K")
	txID := env.fundEscrow(t, seed, intent)
	code, resp := env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/escrow", token, gin.H{"step": 1, "txId": txID})
	require.Equal(t, http.StatusOK, code)
	intent2 := resp["escrowIntent"].(map[string]any)

	code, _ = env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/action", token, gin.H{"action": "deal"})
	require.Equal(t, http.StatusOK, code)

	// Doubling on a single confirmed stake is refused.
	code, resp = env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/action", token, gin.H{"action": "double"})
	assert.Equal(t, http.StatusPaymentRequired, code, "%v", resp)

	tx2 := env.fundEscrow(t, seed, intent2)
	code, resp = env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/escrow", token, gin.H{"step": 2, "txId": tx2})
	require.Equal(t, http.StatusOK, code, "%v", resp)
	assert.Equal(t, float64(2), resp["escrowVerified"])

	code, resp = env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/action", token, gin.H{"action": "double"})
	require.Equal(t, http.StatusOK, code, "%v", resp)
	result := resp["result"].(map[string]any)
	assert.Equal(t, "player", result["outcome"])
	assert.Equal(t, 40.0, result["payout"])

	// 100 funded, 20 escrowed, 40 paid out.
	assert.Equal(t, 120.0, env.balance(t, address))
}

func TestEscrowRejectsWrongAmount(t *testing.T) {
	env := newTestEnv(t)
	seed, _, token := env.session(t, 100)

	roundID, intent := env.openRiggedRound(t, token, 10, "9", "A", "10", "6")

	code, resp := env.do(t, http.MethodPost, "/api/wallet/send", "", gin.H{
		"seed":        seed,
		"destination": intent["to"],
		"amount":      5,
		"memo":        intent["memo"],
	})
	require.Equal(t, http.StatusOK, code)
	txID := resp["txId"].(string)

	code, resp = env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/escrow", token, gin.H{"step": 1, "txId": txID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "amount", resp["reason"])
}

func TestEscrowVerifyIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	seed, _, token := env.session(t, 100)

	roundID, intent := env.openRiggedRound(t, token, 10, "9", "A", "10", "6")
	txID := env.fundEscrow(t, seed, intent)

	for i := 0; i < 2; i++ {
		code, resp := env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/escrow", token, gin.H{"step": 1, "txId": txID})
		require.Equal(t, http.StatusOK, code, "%v", resp)
		assert.Equal(t, float64(1), resp["escrowVerified"])
	}
}

func TestRoundOwnership(t *testing.T) {
	env := newTestEnv(t)
	_, _, owner := env.session(t, 100)
	_, _, intruder := env.session(t, 100)

	roundID, _ := env.openRiggedRound(t, owner, 10, "9", "A", "10", "6")

	code, resp := env.do(t, http.MethodGet, "/api/blackjack/rounds/"+roundID, intruder, nil)
	assert.Equal(t, http.StatusForbidden, code, "%v", resp)

	code, _ = env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/action", intruder, gin.H{"action": "deal"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(t, http.MethodGet, "/api/blackjack/rounds/"+roundID, owner, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.do(t, http.MethodPost, "/api/blackjack/rounds", "", gin.H{"bet": 10})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = env.do(t, http.MethodPost, "/api/blackjack/rounds", "garbage-token", gin.H{"bet": 10})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCreateRoundValidation(t *testing.T) {
	env := newTestEnv(t)
	_, _, token := env.session(t, 100)

	code, _ := env.do(t, http.MethodPost, "/api/blackjack/rounds", token, gin.H{"bet": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPost, "/api/blackjack/rounds", token, gin.H{"bet": -5})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUnknownRoundIs404(t *testing.T) {
	env := newTestEnv(t)
	_, _, token := env.session(t, 100)

	code, _ := env.do(t, http.MethodGet, "/api/blackjack/rounds/no-such-round", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestActionOnSettledRoundConflicts(t *testing.T) {
	env := newTestEnv(t)
	seed, _, token := env.session(t, 100)

	roundID, intent := env.openRiggedRound(t, token, 10, "A", "5", "K", "9")
	txID := env.fundEscrow(t, seed, intent)
	code, _ := env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/escrow", token, gin.H{"step": 1, "txId": txID})
	require.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/action", token, gin.H{"action": "deal"})
	require.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodPost, "/api/blackjack/rounds/"+roundID+"/action", token, gin.H{"action": "hit"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestWalletEndpoints(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodPost, "/api/wallet/create", "", nil)
	require.Equal(t, http.StatusOK, code)
	seed := resp["seed"].(string)
	address := resp["address"].(string)
	require.NotEmpty(t, seed)
	require.NotEmpty(t, address)

	code, resp = env.do(t, http.MethodPost, "/api/wallet/address", "", gin.H{"seed": seed})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, address, resp["address"])

	env.chain.Fund(address, 42)
	code, resp = env.do(t, http.MethodPost, "/api/wallet/balance", "", gin.H{"address": address})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 42.0, resp["balance"])

	code, _ = env.do(t, http.MethodPost, "/api/wallet/send", "", gin.H{
		"seed": seed, "destination": env.chain.HouseAddress(), "amount": 0,
	})
	assert.Equal(t, http.StatusBadRequest, code)
}
