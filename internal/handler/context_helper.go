package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/siga-dev/siga-api/internal/middleware"
	"github.com/siga-dev/siga-api/internal/models"
)

// claimsFromContext returns the claims stored by the JWT middleware,
// or nil on routes that skipped it.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	v, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*models.JWTClaims)
	return claims
}
