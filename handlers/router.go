package handlers

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"autoclaim/logger"
	"autoclaim/metrics"
)

type RouterOptions struct {
	CORSOrigins      []string
	MaxMultipartMB   int64
	HeatmapDir       string
	HeatmapURLPrefix string
}

func NewRouter(h *Handler, opts RouterOptions, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logger.Middleware(log), instrument(), cors(opts.CORSOrigins))
	router.MaxMultipartMemory = opts.MaxMultipartMB << 20

	api := router.Group("/api")
	{
		api.POST("/analyze", h.Analyze)

		api.GET("/estimate/:id", h.GetClaim)
		api.GET("/claims", h.ListClaims)
		api.GET("/claims/:id", h.GetClaim)

		api.GET("/statistics", h.Statistics)
		api.GET("/health", h.Health)
	}

	if opts.HeatmapDir != "" && opts.HeatmapURLPrefix != "" {
		router.Static(opts.HeatmapURLPrefix, opts.HeatmapDir)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func cors(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0 || slices.Contains(origins, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(origins, origin):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{"Content-Type", "Authorization", logger.RequestIDHeader}, ", "))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequestTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
