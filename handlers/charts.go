package handlers

import (
	"net/url"
	"strings"

	"github.com/VanitasCaesar1/clinical-dashboard/charts"
	"github.com/VanitasCaesar1/clinical-dashboard/models"
	"github.com/gofiber/fiber/v2"
)

// ListCharts resolves the patient's graphs of the selected type, laid out
// two per row. ?kpi=true adds the vital cards.
func (h *PatientHandler) ListCharts(c *fiber.Ctx) error {
	selected, ok := graphTypeQuery(c)
	if !ok {
		return sendError(c, fiber.StatusBadRequest, CodeInvalidRequest, "Unknown graph type",
			fiber.Map{"type": c.Query("type")})
	}
	rec, ok, err := h.findPatient(c)
	if !ok {
		return err
	}

	all := rec.AIResponse.Graphs
	patient := projection(rec)
	filtered := charts.Filter(all, selected)
	specs := make([]models.ChartSpec, len(filtered))
	for i, g := range filtered {
		specs[i] = charts.Resolve(g, charts.Options{Patient: patient})
	}

	resp := fiber.Map{
		"selected": selected,
		"counts":   charts.CountByType(all),
		"rows":     charts.Pairs(specs),
	}
	if c.QueryBool("kpi") {
		resp["kpis"] = charts.KPIs(all)
	}
	return c.JSON(resp)
}

// GetChart resolves one graph by its position in the patient's collection.
func (h *PatientHandler) GetChart(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil || index < 0 {
		return sendError(c, fiber.StatusBadRequest, CodeInvalidRequest, "Chart index must be a non-negative integer")
	}
	rec, ok, err := h.findPatient(c)
	if !ok {
		return err
	}

	all := rec.AIResponse.Graphs
	if index >= len(all) {
		return sendError(c, fiber.StatusNotFound, CodeChartNotFound, "Chart not found",
			fiber.Map{"index": index, "available": len(all)})
	}
	return c.JSON(charts.Resolve(all[index], charts.Options{
		ShowKPI:   c.QueryBool("kpi"),
		AllSeries: all,
		Patient:   projection(rec),
	}))
}

// GetLabChart plots one lab test, matched by name case-insensitively.
func (h *PatientHandler) GetLabChart(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("test"))
	if err != nil || strings.TrimSpace(name) == "" {
		return sendError(c, fiber.StatusBadRequest, CodeInvalidRequest, "Invalid lab test name")
	}
	rec, ok, err := h.findPatient(c)
	if !ok {
		return err
	}
	for _, test := range rec.AIResponse.Labs {
		if strings.EqualFold(strings.TrimSpace(test.Name), strings.TrimSpace(name)) {
			return c.JSON(charts.ResolveLab(test))
		}
	}
	return sendError(c, fiber.StatusNotFound, CodeLabTestNotFound, "Lab test not found",
		fiber.Map{"test": name})
}
