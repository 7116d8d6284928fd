package api

import (
	"errors"
	"net/http"

	"mizuki/media-api/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type mediaEditOpts struct {
	Comment *string `json:"comment,omitempty"`
	Private *bool   `json:"private,omitempty"`
}

func (a *API) MediaEdit(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	hashID := c.Param("id")
	if hashID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No media ID provided",
			"requestID": requestID,
		})
		return
	}

	var data mediaEditOpts
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid JSON request body",
			"requestID": requestID,
		})

		zap.L().Error("Failed to read JSON body", zap.Error(err))
		return
	}

	if data.Comment == nil && data.Private == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No edit options provided",
			"requestID": requestID,
		})
		return
	}

	rec, err := a.Media.Update(c.Request.Context(), hashID, data.Comment, data.Private)
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

		zap.L().Error("Failed to update media", zap.String("requestID", requestID), zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, rec)
}
