package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) Stats(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	count, err := a.Media.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to count media records", zap.String("requestID", requestID), zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"media_count": count,
	})
}
