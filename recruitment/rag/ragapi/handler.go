package ragapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hirelens/hirelens/recruitment/rag"
	"github.com/hirelens/hirelens/recruitment/rag/ragsrv"
)

type RAGHandlers struct {
	service *ragsrv.Service
}

func NewRAGHandlers(service *ragsrv.Service) *RAGHandlers {
	return &RAGHandlers{service: service}
}

func (h *RAGHandlers) RegisterRoutes(app *fiber.App) {
	group := app.Group("/api/v1/rag")
	group.Post("/explain-match", h.ExplainMatch)
	group.Post("/compare", h.CompareCandidates)
	group.Post("/interview-questions", h.InterviewQuestions)
}

// ExplainMatch scores one resume against a job description.
// POST /api/v1/rag/explain-match
func (h *RAGHandlers) ExplainMatch(c *fiber.Ctx) error {
	var req rag.ExplainMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	response, err := h.service.ExplainMatch(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// CompareCandidates ranks two to five resumes side by side.
// POST /api/v1/rag/compare
func (h *RAGHandlers) CompareCandidates(c *fiber.Ctx) error {
	var req rag.CompareCandidatesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	response, err := h.service.CompareCandidates(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// InterviewQuestions generates an interview script for one resume.
// POST /api/v1/rag/interview-questions
func (h *RAGHandlers) InterviewQuestions(c *fiber.Ctx) error {
	var req rag.InterviewQuestionsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	response, err := h.service.GenerateInterviewQuestions(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(response)
}
