package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sitetrace/cde-api/internal/middleware"
	"github.com/sitetrace/cde-api/internal/models"
)

func principalFromContext(c *gin.Context) *models.Principal {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return nil
	}
	return principal
}
