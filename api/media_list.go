package api

import (
	"net/http"
	"strconv"
	"time"

	"mizuki/media-api/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (a *API) MediaList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	limitStr := c.DefaultQuery("limit", strconv.Itoa(defaultListLimit))
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > maxListLimit {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid limit provided",
			"requestID": requestID,
		})
		return
	}

	opts := repository.ListOptions{
		Limit: limit,

		// The owner runs this instance; without an auth scheme the
		// privacy filter is an explicit opt-in flag
		IncludePrivate: c.Query("private") == "true",
	}

	if beforeStr := c.Query("before"); beforeStr != "" {
		before, err := time.Parse(time.RFC3339Nano, beforeStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Invalid before cursor provided, expected RFC3339",
				"requestID": requestID,
			})
			return
		}

		opts.Before = &before
	}

	media, err := a.Media.List(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list media", zap.String("requestID", requestID), zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, media)
}
