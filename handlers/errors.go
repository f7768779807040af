package handlers

import "github.com/gofiber/fiber/v2"

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodePatientNotFound  = "PATIENT_NOT_FOUND"
	CodeChartNotFound    = "CHART_NOT_FOUND"
	CodeLabTestNotFound  = "LAB_TEST_NOT_FOUND"
	CodeDocumentNotFound = "DOCUMENT_NOT_FOUND"
	CodeNoFile           = "NO_FILE"
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidFileType  = "INVALID_FILE_TYPE"
	CodeUploadFailed     = "UPLOAD_FAILED"
	CodeFetchFailed      = "FETCH_FAILED"
	CodeChatFailed       = "CHAT_FAILED"
	CodeFeatureDisabled  = "FEATURE_DISABLED"
	CodeTimeout          = "TIMEOUT"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// Structured Error Responses
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func NewErrorResponse(code string, message string, details ...any) ErrorResponse {
	var detail any
	switch len(details) {
	case 0:
	case 1:
		detail = details[0]
	default:
		detail = details
	}
	return ErrorResponse{
		Code:    code,
		Message: message,
		Details: detail,
	}
}

func sendError(c *fiber.Ctx, status int, code, message string, details ...any) error {
	return c.Status(status).JSON(NewErrorResponse(code, message, details...))
}
