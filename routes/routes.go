package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"postql/middleware"
)

type Options struct {
	Schema         *graphql.Schema
	Log            *zap.Logger
	AllowedOrigins []string
	// Health reports whether the store is reachable. Nil means always healthy.
	Health func(ctx context.Context) error
}

func SetupRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(opts.Log), middleware.Metrics())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		if opts.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			if err := opts.Health(ctx); err != nil {
				opts.Log.Warn("health check failed", zap.Error(err))
				c.String(http.StatusServiceUnavailable, "UNAVAILABLE")
				return
			}
		}
		c.String(http.StatusOK, "OK")
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// GraphQL endpoint: POST executes, GET serves the playground.
	router.POST("/graphql", gin.WrapH(&relay.Handler{Schema: opts.Schema}))
	router.GET("/graphql", gin.WrapH(playground.Handler("postql", "/graphql")))

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/graphql") {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Endpoint not found",
				"path":    c.Request.URL.Path,
				"message": "The GraphQL endpoint is /graphql",
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Endpoint not found",
			"path":  c.Request.URL.Path,
		})
	})

	return router
}
