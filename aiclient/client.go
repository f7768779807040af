// Package aiclient talks to the AI-processing backend: the patient
// collection, document ingestion and chat endpoints.
package aiclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/VanitasCaesar1/clinical-dashboard/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// FallbackAnswer is returned when the chat backend answers with nothing.
const FallbackAnswer = "Sorry, I couldn’t understand that."

// ErrUploadFailed wraps every failure to hand a document to the backend.
var ErrUploadFailed = errors.New("document upload failed")

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.Code, e.Body)
}

// UploadAck is the backend's acknowledgement of an ingested document.
type UploadAck struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id,omitempty"`
	Status     string `json:"status,omitempty"`
}

type uploadRequest struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

type chatRequest struct {
	DocumentID string `json:"document_id"`
	Query      string `json:"query"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

type Client struct {
	baseURL string
	chatURL string
	timeout time.Duration
	logger  *zap.Logger
}

// New returns a client for the backend at baseURL. chatURL defaults to
// baseURL + "/chat/".
func New(baseURL, chatURL string, timeout time.Duration, logger *zap.Logger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if chatURL == "" {
		chatURL = baseURL + "/chat/"
	}
	return &Client{
		baseURL: baseURL,
		chatURL: chatURL,
		timeout: timeout,
		logger:  logger,
	}
}

// FetchPatients retrieves every processed patient record.
func (c *Client) FetchPatients(ctx context.Context) (models.PatientCollection, error) {
	var coll models.PatientCollection
	a := fiber.Get(c.baseURL + "/patients")
	body, err := c.do(ctx, a, "patients")
	if err != nil {
		return coll, err
	}
	if err := json.Unmarshal(body, &coll); err != nil {
		return coll, fmt.Errorf("failed to decode patient collection: %w", err)
	}
	return coll, nil
}

// UploadDocument sends a document for ingestion. Once it succeeds the
// patient collection includes the new or updated record.
func (c *Client) UploadDocument(ctx context.Context, filename string, data []byte) (UploadAck, error) {
	a := fiber.Post(c.baseURL + "/upload").JSON(uploadRequest{
		Filename: filename,
		FileData: base64.StdEncoding.EncodeToString(data),
	})
	body, err := c.do(ctx, a, "upload")
	if err != nil {
		c.logger.Error("Document upload failed",
			zap.String("filename", filename),
			zap.Int("size", len(data)),
			zap.Error(err))
		return UploadAck{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	var ack UploadAck
	if err := json.Unmarshal(body, &ack); err != nil {
		// Some deployments answer with plain text.
		ack.Message = strings.TrimSpace(string(body))
	}
	return ack, nil
}

// Chat asks a question about one patient's documents.
func (c *Client) Chat(ctx context.Context, patientID, query string) (string, error) {
	a := fiber.Post(c.chatURL).JSON(chatRequest{DocumentID: patientID, Query: query})
	body, err := c.do(ctx, a, "chat")
	if err != nil {
		return "", err
	}
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if strings.TrimSpace(resp.Answer) == "" {
		return FallbackAnswer, nil
	}
	return resp.Answer, nil
}

// do sends the request and returns the body of a 2xx response. The agent
// cannot be cancelled mid-flight, so ctx bounds it through the timeout.
func (c *Client) do(ctx context.Context, a *fiber.Agent, endpoint string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(a)
		return nil, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if timeout > 0 {
		a.Timeout(timeout)
	}

	start := time.Now()
	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s request failed: %w", endpoint, errors.Join(errs...))
	}
	c.logger.Debug("AI backend call",
		zap.String("endpoint", endpoint),
		zap.Int("status", code),
		zap.Duration("elapsed", time.Since(start)))
	if code < 200 || code > 299 {
		return nil, &StatusError{Endpoint: endpoint, Code: code, Body: truncate(string(body), 256)}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
