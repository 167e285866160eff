// Command moshd serves datamosh over HTTP
package main

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"datamosh/handlers"
	"datamosh/logging"
)

func main() {
	cfg := logging.DefaultConfig(os.Stderr)
	logging.ApplyEnv(&cfg, os.Getenv)
	logger := logging.New("moshd", cfg)

	router := NewRouter(handlers.NewMoshHandler(logger), os.Getenv("CORS_ORIGIN"))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("server starting")
	logger.Info().Msg("  POST /api/v1/mosh   - Corrupt an AVI or MP4 upload (returns the moshed file)")
	logger.Info().Msg("  GET  /api/v1/health - Health check")

	if err := router.Run(":" + port); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}

// NewRouter wires the API routes behind CORS
func NewRouter(h *handlers.MoshHandler, origin string) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	if origin == "" {
		origin = "http://localhost:3000"
	}
	config.AllowOrigins = []string{origin}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	config.ExposeHeaders = []string{
		"X-Mosh-PSNR", "X-Mosh-Seed", "X-Mosh-Frames", "X-Mosh-Glitches",
		"X-Request-ID", "Content-Disposition",
	}
	config.AllowCredentials = true
	router.Use(cors.New(config))

	api := router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)
		api.POST("/mosh", h.Mosh)
	}
	return router
}
