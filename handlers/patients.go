package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/VanitasCaesar1/clinical-dashboard/charts"
	"github.com/VanitasCaesar1/clinical-dashboard/models"
	"github.com/VanitasCaesar1/clinical-dashboard/store"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PatientStore is the patient cache the dashboard reads through.
type PatientStore interface {
	CachedCollection(ctx context.Context) ([]models.PatientRecord, error)
	CachedDemographics(ctx context.Context) ([]models.DemographicsProjection, error)
	Refresh(ctx context.Context) ([]models.DemographicsProjection, error)
	InvalidateAndRefresh(ctx context.Context) ([]models.DemographicsProjection, error)
	FindPatientByID(ctx context.Context, id string) (models.PatientRecord, bool, error)
}

type PatientHandler struct {
	store   PatientStore
	logger  *zap.Logger
	timeout time.Duration
}

func NewPatientHandler(store PatientStore, logger *zap.Logger, timeout time.Duration) *PatientHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PatientHandler{
		store:   store,
		logger:  logger,
		timeout: timeout,
	}
}

func (h *PatientHandler) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.timeout)
}

// ListPatients returns the cached patient list, optionally filtered by q.
func (h *PatientHandler) ListPatients(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	list, err := h.store.CachedDemographics(ctx)
	if err != nil {
		h.logger.Error("failed to read patient list", zap.Error(err))
		return sendError(c, fiber.StatusInternalServerError, CodeInternal, "Failed to read patient list")
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		list = searchPatients(list, q)
	}
	return c.JSON(fiber.Map{
		"patients": list,
		"count":    len(list),
	})
}

// searchPatients matches q case-insensitively against name, MRN, phone
// and record ID.
func searchPatients(list []models.DemographicsProjection, q string) []models.DemographicsProjection {
	q = strings.ToLower(q)
	out := []models.DemographicsProjection{}
	for _, p := range list {
		for _, field := range []string{p.Name.Full(), p.PatientID, p.Contact.Phone, p.ID} {
			if strings.Contains(strings.ToLower(field), q) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// RefreshPatients fetches the collection from the AI backend.
func (h *PatientHandler) RefreshPatients(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	list, err := h.store.Refresh(ctx)
	if err != nil {
		return h.refreshError(c, err)
	}
	return c.JSON(fiber.Map{
		"patients": list,
		"count":    len(list),
	})
}

func (h *PatientHandler) refreshError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrFetchFailed):
		return sendError(c, fiber.StatusBadGateway, CodeFetchFailed,
			"Could not load patient data. Showing the last saved data.")
	case errors.Is(err, context.DeadlineExceeded):
		return sendError(c, fiber.StatusGatewayTimeout, CodeTimeout, "Refreshing patient data timed out")
	}
	h.logger.Error("failed to refresh patient data", zap.Error(err))
	return sendError(c, fiber.StatusInternalServerError, CodeInternal, "Failed to refresh patient data")
}

// findPatient loads the patient named by the :id param. When ok is false
// the error response has already been written and err is its result.
func (h *PatientHandler) findPatient(c *fiber.Ctx) (rec models.PatientRecord, ok bool, err error) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	id := c.Params("id")
	rec, found, err := h.store.FindPatientByID(ctx, id)
	if err != nil {
		h.logger.Error("failed to look up patient", zap.String("patient_id", id), zap.Error(err))
		return rec, false, sendError(c, fiber.StatusInternalServerError, CodeInternal, "Failed to read patient data")
	}
	if !found {
		return rec, false, sendError(c, fiber.StatusNotFound, CodePatientNotFound,
			"Patient not found. The document may still be processing.", fiber.Map{"patient_id": id})
	}
	return rec, true, nil
}

// GetPatient returns the full record with its stability variant.
func (h *PatientHandler) GetPatient(c *fiber.Ctx) error {
	rec, ok, err := h.findPatient(c)
	if !ok {
		return err
	}
	return c.JSON(fiber.Map{
		"patient":           rec,
		"stability_variant": charts.StabilityVariant(rec.AIResponse.Vitals.Stability),
	})
}

func (h *PatientHandler) GetTimeline(c *fiber.Ctx) error {
	rec, ok, err := h.findPatient(c)
	if !ok {
		return err
	}
	return c.JSON(fiber.Map{
		"patient_id": rec.ID,
		"events":     charts.Timeline(rec.AIResponse.Timeline),
	})
}

// GetGraphs returns the raw graph series of the selected type and the
// number of graphs of every type.
func (h *PatientHandler) GetGraphs(c *fiber.Ctx) error {
	selected, ok := graphTypeQuery(c)
	if !ok {
		return sendError(c, fiber.StatusBadRequest, CodeInvalidRequest, "Unknown graph type",
			fiber.Map{"type": c.Query("type")})
	}
	rec, ok, err := h.findPatient(c)
	if !ok {
		return err
	}
	graphs := rec.AIResponse.Graphs
	return c.JSON(fiber.Map{
		"selected": selected,
		"graphs":   charts.Filter(graphs, selected),
		"counts":   charts.CountByType(graphs),
	})
}

// graphTypeQuery reads ?type=, defaulting to all.
func graphTypeQuery(c *fiber.Ctx) (string, bool) {
	selected := strings.ToLower(strings.TrimSpace(c.Query("type", charts.FilterAll)))
	if selected == charts.FilterAll {
		return selected, true
	}
	t := models.ParseGraphType(selected)
	if t == models.GraphUnrecognized {
		return "", false
	}
	return string(t), true
}

func projection(rec models.PatientRecord) *models.DemographicsProjection {
	return &models.DemographicsProjection{ID: rec.ID, Demographics: rec.AIResponse.Demographics}
}
