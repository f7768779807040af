package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const chatFailedMessage = "Something went wrong. Please try again."

// Chatter answers a question about one patient's document.
type Chatter interface {
	Chat(ctx context.Context, patientID, query string) (string, error)
}

type ChatRequest struct {
	PatientID string `json:"patient_id" validate:"required,max=128,printascii"`
	Query     string `json:"query" validate:"required,max=2000"`
}

type ChatHandler struct {
	chatter   Chatter
	logger    *zap.Logger
	validator *validator.Validate
	timeout   time.Duration
}

func NewChatHandler(chatter Chatter, logger *zap.Logger, timeout time.Duration) *ChatHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatHandler{
		chatter:   chatter,
		logger:    logger,
		validator: validator.New(),
		timeout:   timeout,
	}
}

// Chat forwards a question to the AI backend and returns its answer.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return sendError(c, fiber.StatusBadRequest, CodeInvalidRequest, "Invalid request body", err.Error())
	}
	req.PatientID = strings.TrimSpace(req.PatientID)
	req.Query = strings.TrimSpace(req.Query)
	if err := h.validator.Struct(req); err != nil {
		return sendError(c, fiber.StatusBadRequest, CodeValidationFailed, "Validation failed", formatValidationErrors(err))
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	answer, err := h.chatter.Chat(ctx, req.PatientID, req.Query)
	if err != nil {
		h.logger.Error("chat request failed",
			zap.String("patient_id", req.PatientID),
			zap.Error(err))
		return sendError(c, fiber.StatusBadGateway, CodeChatFailed, chatFailedMessage)
	}
	return c.JSON(fiber.Map{"answer": answer})
}
