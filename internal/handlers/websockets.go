package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"wear_relay/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Upgrader for HTTP -> WebSocket. Nodes authenticate with a token, so any
// origin is accepted.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Connect a handheld node
// @Description  Upgrades to a WebSocket. The token comes from the Authorization header or the 'token' query parameter.
// @Tags         nodes
// @Param        token         query  string  false  "Access token"
// @Param        nearby        query  bool    false  "Node is nearby"
// @Param        display_name  query  string  false  "Display name"
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	token, ok := wsToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	nodeID, err := h.services.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	node := parseNode(c, nodeID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "node_id", nodeID, "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	if h.log != nil {
		h.log.Infow("ws_node_connected", "node_id", node.ID, "nearby", node.Nearby)
	}
	h.nodes.Serve(c.Request.Context(), conn, node)
	if h.log != nil {
		h.log.Infow("ws_node_disconnected", "node_id", node.ID)
	}
}

// Helper: wsToken reads the bearer token, falling back to ?token=.
func wsToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		return bearerToken(header)
	}
	token := strings.TrimSpace(c.Query("token"))
	return token, token != ""
}

// Helper: parseNode builds the node from ?nearby= and ?display_name=.
func parseNode(c *gin.Context, nodeID string) models.Node {
	nearby, _ := strconv.ParseBool(c.Query("nearby"))
	name := strings.TrimSpace(c.Query("display_name"))
	if name == "" {
		name = nodeID
	}
	return models.Node{ID: nodeID, DisplayName: name, Nearby: nearby}
}
