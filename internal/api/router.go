package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterOptions configures middleware and static content.
type RouterOptions struct {
	PublicDir          string
	MaxUploadBytes     int64
	CORSAllowedOrigins string
}

// NewRouter wires the handler's endpoints, CORS, request logging, the body
// size limit and the static upload page.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.Use(cors.New(corsConfig(opts.CORSAllowedOrigins)))
	if opts.MaxUploadBytes > 0 {
		router.Use(limitBody(opts.MaxUploadBytes))
	}

	router.GET("/health", handleHealth)

	api := router.Group("/api")
	{
		api.POST("/upload", h.Upload)
		api.GET("/process-project/:projectId", h.ProcessProject)
		api.GET("/jobs/:jobId", h.Job)
	}

	if opts.PublicDir != "" {
		files := http.FileServer(gin.Dir(opts.PublicDir, false))
		router.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
				c.JSON(http.StatusNotFound, gin.H{"message": "Not found."})
				return
			}
			files.ServeHTTP(c.Writer, c.Request)
		})
	}
	return router
}

func corsConfig(allowed string) cors.Config {
	cfg := cors.DefaultConfig()
	var origins []string
	for _, o := range strings.Split(allowed, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	return cfg
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("Request handled.",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}
