package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userCtxKey = "userId"

	// tokenQueryParam carries the JWT for clients that cannot set headers,
	// such as a browser WebSocket.
	tokenQueryParam = "access_token"

	errMissingAuth   = "missing Authorization header"
	errInvalidScheme = "invalid Authorization header format"
	errInvalidToken  = "invalid or expired token"
)

func (h *Handler) userIdMiddleware(c *gin.Context) {
	token, errMsg := bearerToken(c)
	if errMsg != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMsg})
		return
	}

	userId, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Debugw("auth_token_rejected", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidToken})
		return
	}

	c.Set(userCtxKey, userId)
	c.Next()
}

// bearerToken extracts the token from "Authorization: Bearer <token>", or
// from the access_token query parameter when the header is absent.
func bearerToken(c *gin.Context) (string, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if q := strings.TrimSpace(c.Query(tokenQueryParam)); q != "" {
			return q, ""
		}
		return "", errMissingAuth
	}

	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errInvalidScheme
	}
	return token, ""
}
