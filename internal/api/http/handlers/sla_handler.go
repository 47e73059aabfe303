package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-sla-service/internal/api/dto"
	"github.com/spec-kit/case-sla-service/internal/sla"
)

// SLAHandler exposes the pipeline trigger endpoint. The scheduler runs the
// same processor directly; this route exists for manual runs from the admin
// UI, which is why it also answers CORS preflight.
type SLAHandler struct {
	processor *sla.Processor
}

// NewSLAHandler constructs handler.
func NewSLAHandler(processor *sla.Processor) *SLAHandler {
	return &SLAHandler{processor: processor}
}

// Run POST /internal/sla/run. A fatal evaluation failure surfaces as a 500
// with details; per-item dispatch failures are reported inside the summary of
// an otherwise successful run.
func (h *SLAHandler) Run(c *fiber.Ctx) error {
	summary, err := h.processor.Run(c.UserContext())
	if err != nil {
		if errors.Is(err, sla.ErrRunInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "an SLA run is already in progress",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "SLA processing failed",
			"details": err.Error(),
		})
	}

	return c.JSON(dto.SLARunResponse{
		Success:         true,
		Message:         "SLA monitoring completed",
		FollowUpsSent:   summary.FollowUpsSent,
		EscalationsSent: summary.EscalationsSent,
		Errors:          summary.Errors,
	})
}
