package handlers

import (
	"net/http"

	"github.com/anonto42/timeline-globe/backend/internal/apperrors"
	"github.com/anonto42/timeline-globe/backend/internal/middleware"
	"github.com/anonto42/timeline-globe/backend/internal/models"
	"github.com/anonto42/timeline-globe/backend/internal/services"
	"github.com/anonto42/timeline-globe/backend/validators"
	"github.com/labstack/echo/v4"
)

// VoteHandler handles up/down votes on posts
type VoteHandler struct {
	ledger *services.VoteLedger
}

// NewVoteHandler creates a new VoteHandler
func NewVoteHandler(ledger *services.VoteLedger) *VoteHandler {
	return &VoteHandler{ledger: ledger}
}

// RegisterVoteRoutes registers vote routes; voting always requires a user.
func (h *VoteHandler) RegisterVoteRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/posts/:id/vote", h.CastVote, requireAuth)
}

// CastVote toggles, switches or records the caller's vote and returns the post.
func (h *VoteHandler) CastVote(c echo.Context) error {
	var req models.VoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.InvalidArgument("%s", validators.Describe(err))
	}

	post, err := h.ledger.CastVote(c.Request().Context(), c.Param("id"), middleware.UserIDFrom(c), req.VoteType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}
