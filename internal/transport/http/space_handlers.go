package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/meshspace/meshspace-server/internal/core"
	"github.com/meshspace/meshspace-server/internal/directory"
)

// SpaceHandlers provides read-only HTTP views onto live space state.
type SpaceHandlers struct {
	registry *core.Registry
	spaces   directory.Directory
	log      *zerolog.Logger
}

// NewSpaceHandlers creates a new space handlers instance.
func NewSpaceHandlers(registry *core.Registry, spaces directory.Directory, logger *zerolog.Logger) *SpaceHandlers {
	return &SpaceHandlers{
		registry: registry,
		spaces:   spaces,
		log:      logger,
	}
}

// OccupantsResponse lists who is currently present in a space.
type OccupantsResponse struct {
	SpaceID   string   `json:"spaceId"`
	Occupants []string `json:"occupants"`
}

// Occupants handles occupancy snapshots.
// GET /api/spaces/:id/occupants
func (h *SpaceHandlers) Occupants(c *gin.Context) {
	spaceID := c.Param("id")

	if _, err := h.spaces.Lookup(c.Request.Context(), spaceID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "space not found"})
			return
		}
		h.log.Error().Err(err).Str("space_id", spaceID).Msg("space lookup failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, OccupantsResponse{
		SpaceID:   spaceID,
		Occupants: h.registry.MembersOf(spaceID),
	})
}
