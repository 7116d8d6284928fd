package api

import (
	"errors"
	"io"
	"net/http"

	"mizuki/media-api/internal/service"
	"mizuki/media-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) MediaUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open multipart file", zap.String("requestID", requestID), zap.Error(err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to read multipart file", zap.String("requestID", requestID), zap.Error(err))
		return
	}

	var comment *string
	if v := c.PostForm("comment"); v != "" {
		comment = &v
	}

	rec, err := a.Media.Create(c.Request.Context(), service.CreateInput{
		Data:     data,
		Filename: fh.Filename,
		Private:  c.PostForm("private") == "true",
		Comment:  comment,
	})
	if err != nil {
		// Validation failures carry a message the uploader can act
		// on; everything else stays generic
		if errors.Is(err, validators.ErrUnknownType) ||
			errors.Is(err, validators.ErrUnsupportedType) ||
			errors.Is(err, validators.ErrTypeMismatch) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create media", zap.String("requestID", requestID), zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, rec)
}
