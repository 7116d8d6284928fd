// Package api contains all endpoints available
package api

import (
	"context"
	"fmt"
	"time"

	"mizuki/media-api/db"
	"mizuki/media-api/internal/repository"
	"mizuki/media-api/internal/service"
	"mizuki/media-api/internal/storage"
	"mizuki/media-api/pkg/middleware"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB     *gorm.DB
	Router *gin.Engine
	Media  *service.MediaService
}

func NewRouter() (*API, error) {
	a := &API{}

	makeLogger()

	conn, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	a.DB = conn

	artifacts, err := newArtifactStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact storage, %w", err)
	}

	repo := repository.NewGormMediaRepository(conn)
	thumb := service.NewThumbnailer(viper.GetInt("thumbnail.width"), viper.GetInt("thumbnail.height"))
	a.Media = service.NewMediaService(repo, artifacts, service.NewAllocator(repo, nil), thumb)

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	maxUploadSize := viper.GetInt64("upload.max_size")

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// GET /api/stats		-> Returns the total record count
		main.GET("/stats", cacheFor(30), a.Stats)
	}

	media := main.Group("/media")
	{
		// GET /api/media		-> Lists media, newest first, cursor paged
		media.GET("", a.MediaList)

		// GET /api/media/:id		-> Returns a single media record.
		// Not cached: a PATCH or DELETE must be visible immediately
		media.GET("/:id", a.MediaFetch)

		// POST /api/media		-> Uploads a new image
		media.POST("", middleware.BodySizeLimiter(maxUploadSize), a.MediaUpload)

		// PATCH /api/media/:id		-> Edits the comment or privacy flag
		media.PATCH("/:id", middleware.BodySizeLimiter(1<<20), a.MediaEdit)

		// DELETE /api/media/:id	-> Deletes a media record and its files
		media.DELETE("/:id", a.MediaDelete)
	}

	return a, nil
}

func newArtifactStore() (storage.ArtifactStore, error) {
	switch viper.GetString("storage.type") {
	case "s3":
		return storage.NewS3Store(context.Background())
	default:
		return storage.NewLocalStore(viper.GetString("storage.local_root"))
	}
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	if lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
