package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"blackjack-house-go/backend/internal/auth"
	"blackjack-house-go/backend/internal/config"
	"blackjack-house-go/backend/internal/game/blackjack"
	"blackjack-house-go/backend/internal/store"
	ws "blackjack-house-go/backend/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			// Non-browser clients (no Origin) are allowed.
			return true
		}
		if cfgIsDev() && isLocalhostOrigin(origin) {
			return true
		}
		return isAllowedOrigin(origin)
	},
}

// set by config at startup
var (
	originMu       sync.RWMutex
	allowedOrigins = map[string]bool{}
	devMode        = false
)

func SetWebSocketOriginPolicy(isDev bool, origins []string) {
	originMu.Lock()
	defer originMu.Unlock()
	devMode = isDev
	allowedOrigins = map[string]bool{}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			allowedOrigins[o] = true
		}
	}
}

func cfgIsDev() bool {
	originMu.RLock()
	defer originMu.RUnlock()
	return devMode
}

func isAllowedOrigin(origin string) bool {
	originMu.RLock()
	defer originMu.RUnlock()
	return allowedOrigins[origin]
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// RoundHub adapts the generic hub to round-state pushes. Every mutation path
// funnels through it so watchers always see the public projection, never the
// raw round.
type RoundHub struct {
	hub *ws.Hub
}

func NewRoundHub(hub *ws.Hub) *RoundHub {
	return &RoundHub{hub: hub}
}

func roomFor(roundID string) string {
	return "round:" + roundID
}

func (h *RoundHub) broadcast(r *blackjack.Round) {
	if h == nil || h.hub == nil || r == nil {
		return
	}
	h.hub.Broadcast(roomFor(r.ID), "round_state", buildPublicState(r))
}

// publish loads the current round and broadcasts it; used where the caller
// does not already hold a fresh copy.
func (h *RoundHub) publish(ctx context.Context, rounds *store.Rounds, roundID string) {
	if h == nil || h.hub == nil {
		return
	}
	round, err := rounds.Get(ctx, roundID)
	if err != nil {
		return
	}
	h.broadcast(round)
}

// WebSocketHandler upgrades the connection and registers the client on its
// round's room. The token may arrive via header, cookie, or query param
// (browser WebSocket API cannot set headers).
func WebSocketHandler(hub *ws.Hub, rounds *store.Rounds, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequestOrQuery(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := auth.ParseAndValidateToken(token, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		roundID := strings.TrimSpace(c.Query("round"))
		if roundID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing round"})
			return
		}
		// Watching requires owning the round; the stream reveals the same
		// projection as GET state, under the same rule.
		round, err := rounds.Get(c.Request.Context(), roundID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		if round.Address != claims.Address {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not your round"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		client := ws.NewClient(conn, hub, roomFor(roundID), claims.Address)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}
}

func tokenFromRequestOrQuery(c *gin.Context) string {
	if t := strings.TrimSpace(c.Query("token")); t != "" {
		return t
	}
	if v, err := c.Cookie("bjh_token"); err == nil {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	authz := c.GetHeader("Authorization")
	if authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}
