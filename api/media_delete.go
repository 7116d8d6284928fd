package api

import (
	"errors"
	"net/http"

	"mizuki/media-api/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) MediaDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	hashID := c.Param("id")
	if hashID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No media ID provided",
			"requestID": requestID,
		})
		return
	}

	err := a.Media.Delete(c.Request.Context(), hashID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Media not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete media", zap.String("requestID", requestID), zap.Error(err))
		return
	}

	c.Status(http.StatusOK)
}
