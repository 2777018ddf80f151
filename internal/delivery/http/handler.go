package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
	"github.com/HyungsunSo/AI-NutriCurator/internal/platform/logger"
	"github.com/HyungsunSo/AI-NutriCurator/internal/usecase"
)

// ServiceName is reported by the health endpoint
const ServiceName = "nutricurator"

// Matcher runs the matching pipeline over a batch of names
type Matcher interface {
	Run(ctx context.Context, queries []string) (*domain.Report, error)
}

// Recommender scores single products for a disease profile
type Recommender interface {
	Recommend(ctx context.Context, productName string, profile domain.DiseaseProfile) (*domain.Recommendation, error)
	CompareSwap(ctx context.Context, chosen, alternative string, profile domain.DiseaseProfile) (*domain.SwapVerdict, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	matcher     Matcher
	recommender Recommender
	log         *logger.Logger
}

// NewHandler creates a new HTTP handler; nil collaborators answer 503
func NewHandler(matcher Matcher, recommender Recommender) *Handler {
	return &Handler{
		matcher:     matcher,
		recommender: recommender,
		log:         logger.Named("http"),
	}
}

// MatchRequest is the body of POST /api/v1/match
type MatchRequest struct {
	Queries []string `json:"queries" binding:"required,min=1,max=1000,dive,max=256"`
}

// RecommendRequest is the body of POST /api/v1/recommend
type RecommendRequest struct {
	ProductName string `json:"product_name" binding:"required,max=256"`
	Profile     string `json:"profile" binding:"required"`
}

// SwapRequest is the body of POST /api/v1/swap
type SwapRequest struct {
	Chosen      string `json:"chosen" binding:"required,max=256"`
	Alternative string `json:"alternative" binding:"required,max=256"`
	Profile     string `json:"profile" binding:"required"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": ServiceName,
		"version": "1.0.0",
	})
}

// Match resolves a batch of raw product names against the catalog
func (h *Handler) Match(c *gin.Context) {
	if h.matcher == nil {
		h.notConfigured(c, "matching")
		return
	}

	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	report, err := h.matcher.Run(c.Request.Context(), req.Queries)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Recommend matches one product and scores it for a disease profile
func (h *Handler) Recommend(c *gin.Context) {
	if h.recommender == nil {
		h.notConfigured(c, "recommendation")
		return
	}

	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	profile, err := usecase.ParseProfile(req.Profile)
	if err != nil {
		h.respondError(c, err)
		return
	}

	rec, err := h.recommender.Recommend(c.Request.Context(), req.ProductName, profile)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Swap reports whether an alternative product is the healthier pick
func (h *Handler) Swap(c *gin.Context) {
	if h.recommender == nil {
		h.notConfigured(c, "recommendation")
		return
	}

	var req SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	profile, err := usecase.ParseProfile(req.Profile)
	if err != nil {
		h.respondError(c, err)
		return
	}

	verdict, err := h.recommender.CompareSwap(c.Request.Context(), req.Chosen, req.Alternative, profile)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

func (h *Handler) notConfigured(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": what + " service not configured"})
}

// respondError maps domain errors to status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnknownProfile):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNoMatch):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
