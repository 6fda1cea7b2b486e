package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/timeline-globe/backend/internal/apperrors"
	"github.com/anonto42/timeline-globe/backend/internal/middleware"
	"github.com/anonto42/timeline-globe/backend/internal/models"
	"github.com/anonto42/timeline-globe/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts *services.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// RegisterPostRoutes registers post-related routes. Reads are public; writes
// go through requireAuth.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("/posts", h.GetPosts)
	g.GET("/posts/:id", h.GetPost)
	g.POST("/posts", h.CreatePost, requireAuth)
	g.PUT("/posts/:id", h.UpdatePost, requireAuth)
	g.DELETE("/posts/:id", h.DeletePost, requireAuth)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	post, err := h.posts.CreatePost(c.Request().Context(), middleware.UserIDFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.posts.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// GetPosts browses posts filtered by year and distance from lat/lng.
func (h *PostHandler) GetPosts(c echo.Context) error {
	q, err := parsePostQuery(c)
	if err != nil {
		return err
	}

	posts, err := h.posts.QueryPosts(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// UpdatePost updates an existing post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	post, err := h.posts.UpdatePost(c.Request().Context(), c.Param("id"), middleware.UserIDFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post
func (h *PostHandler) DeletePost(c echo.Context) error {
	if err := h.posts.DeletePost(c.Request().Context(), c.Param("id"), middleware.UserIDFrom(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Post deleted"})
}

func parsePostQuery(c echo.Context) (models.PostQuery, error) {
	var (
		q   models.PostQuery
		err error
	)
	if v := c.QueryParam("year"); v != "" {
		year, convErr := strconv.Atoi(v)
		if convErr != nil {
			return q, apperrors.InvalidArgument("year must be an integer")
		}
		q.Year = &year
	}
	if q.Lat, err = floatParam(c, "lat"); err != nil {
		return q, err
	}
	if q.Lng, err = floatParam(c, "lng"); err != nil {
		return q, err
	}
	if q.RadiusMeters, err = floatParam(c, "radius"); err != nil {
		return q, err
	}
	if q.Skip, err = intParam(c, "skip"); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(c, "limit"); err != nil {
		return q, err
	}
	return q, nil
}

func floatParam(c echo.Context, name string) (*float64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, apperrors.InvalidArgument("%s must be a number", name)
	}
	return &f, nil
}

func intParam(c echo.Context, name string) (int64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, apperrors.InvalidArgument("%s must be an integer", name)
	}
	return n, nil
}
