package charts

import (
	"strings"

	"github.com/VanitasCaesar1/clinical-dashboard/models"
)

// ResolveLab plots one lab test's results over time as a scatter, shading
// the reference range when it can be read.
func ResolveLab(test models.LabTest) models.ChartSpec {
	if len(test.Values) == 0 {
		return noData(test.Name, nil)
	}
	pts := sortByDate(test.Values, func(v models.LabValue) string { return v.Date })
	labels := make([]string, len(pts))
	points := make([]models.DataPoint, len(pts))
	for i, v := range pts {
		labels[i] = label(v.Date, i)
		points[i] = models.DataPoint{X: float64(i), Y: v.Value.Value, Label: v.Value.Text}
	}
	series := models.Series{
		Name:   test.Name,
		Type:   models.SeriesScatter,
		Points: points,
		Style:  &models.SeriesStyle{Color: "#9c27b0", Symbol: 8},
	}
	if lo, hi, ok := parseReferenceRange(test.ReferenceRange); ok {
		series.MarkArea = &models.MarkArea{Name: "Reference range", From: lo, To: hi}
	}
	return models.ChartSpec{
		Title:   models.Title{Text: test.Name, Subtext: test.ReferenceRange},
		Tooltip: &models.Tooltip{Trigger: "item"},
		XAxis:   &models.Axis{Type: models.AxisCategory, Data: labels},
		YAxis:   &models.Axis{Type: models.AxisValue, Name: test.Unit},
		Series:  []models.Series{series},
	}
}

// parseReferenceRange reads "70-99", "70 – 99 mg/dL" and "<200".
func parseReferenceRange(s string) (float64, float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "–", "-"))
	if s == "" {
		return 0, 0, false
	}
	if rest, ok := strings.CutPrefix(s, "<"); ok {
		hi, ok := models.LeadingNumber(strings.TrimPrefix(rest, "="))
		return 0, hi, ok
	}
	// Skip a leading minus so negative lower bounds are not split.
	idx := strings.Index(s[1:], "-")
	if idx < 0 {
		return 0, 0, false
	}
	lo, okLo := models.LeadingNumber(s[:idx+1])
	hi, okHi := models.LeadingNumber(s[idx+2:])
	if !okLo || !okHi || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}
