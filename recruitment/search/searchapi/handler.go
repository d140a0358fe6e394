package searchapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hirelens/hirelens/recruitment/search"
	"github.com/hirelens/hirelens/recruitment/search/searchsrv"
)

type SearchHandlers struct {
	service *searchsrv.Service
}

func NewSearchHandlers(service *searchsrv.Service) *SearchHandlers {
	return &SearchHandlers{service: service}
}

func (h *SearchHandlers) RegisterRoutes(app *fiber.App) {
	group := app.Group("/api/v1/search")
	group.Post("/semantic", h.SemanticSearch)
	group.Post("/structured", h.StructuredSearch)
	group.Post("/hybrid", h.HybridSearch)
	group.Get("/filter-options", h.FilterOptions)
}

// SemanticSearch ranks resumes by embedding similarity to the query.
// POST /api/v1/search/semantic
func (h *SearchHandlers) SemanticSearch(c *fiber.Ctx) error {
	var req search.SemanticSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	response, err := h.service.Semantic(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// StructuredSearch filters resumes through the graph.
// POST /api/v1/search/structured
func (h *SearchHandlers) StructuredSearch(c *fiber.Ctx) error {
	var req search.StructuredSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	response, err := h.service.Structured(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// HybridSearch fuses semantic and structured results.
// POST /api/v1/search/hybrid
func (h *SearchHandlers) HybridSearch(c *fiber.Ctx) error {
	var req search.HybridSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	response, err := h.service.Hybrid(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// FilterOptions lists the distinct filter values with resume counts.
// GET /api/v1/search/filter-options
func (h *SearchHandlers) FilterOptions(c *fiber.Ctx) error {
	response, err := h.service.FilterOptions(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(response)
}
