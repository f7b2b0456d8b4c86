package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Single, shared credentials payload for both sign-up and sign-in.
type nodeCredentials struct {
	NodeID string `json:"node_id" binding:"required"`
	Secret string `json:"secret" binding:"required"`
}

// NodeCredentials is an exported model for Swagger docs of the pairing payload.
type NodeCredentials struct {
	// Handheld node id
	NodeID string `json:"node_id" example:"pixel-7-a1b2"`
	// Pairing secret
	Secret string `json:"secret" example:"s3cr3t"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// @Summary      Pair a handheld node
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      NodeCredentials  true  "Node credentials"
// @Success      200   {object}  map[string]int
// @Failure      400   {object}  map[string]string
// @Router       /auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	var input nodeCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id, err := h.services.SignUp(input.NodeID, input.Secret)
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_sign_up_failed", "node_id", input.NodeID, "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// @Summary      Issue a node access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      NodeCredentials  true  "Node credentials"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input nodeCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	token, err := h.services.GenerateToken(input.NodeID, input.Secret)
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_sign_in_failed", "node_id", input.NodeID, "err", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
