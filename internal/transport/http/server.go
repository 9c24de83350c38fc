package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/meshspace/meshspace-server/internal/config"
	"github.com/meshspace/meshspace-server/internal/core"
	"github.com/meshspace/meshspace-server/internal/directory"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the HTTP server: health, occupancy API, and the ws route.
// The spawner is injected so tests can pin spawn coordinates.
func NewServer(registry *core.Registry, verifier core.CredentialVerifier, spaces directory.Directory, spawn core.Spawner, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/healthz", healthHandler)

	spaceHandlers := NewSpaceHandlers(registry, spaces, logger)
	router.GET("/api/spaces/:id/occupants", spaceHandlers.Occupants)

	wsHandler := NewWSHandler(registry, verifier, spaces, spawn, cfg.MaxMessageBytes, logger)
	router.GET("/ws", gin.WrapH(wsHandler))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
