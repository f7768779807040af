package charts

import (
	"strings"

	"github.com/VanitasCaesar1/clinical-dashboard/models"
)

// trendTolerance is the relative change between the last two readings
// below which a vital counts as stable.
const trendTolerance = 0.01

type kpiSource struct {
	title   string
	unit    string
	extract func(models.SeriesData) ([]string, []float64, bool)
	variant func(float64) models.Variant
}

// kpiSources are the four fixed vitals shown as cards, in display order.
var kpiSources = []kpiSource{
	{
		title: "Weight",
		unit:  "lb",
		extract: func(d models.SeriesData) ([]string, []float64, bool) {
			s, ok := d.(models.WeightSeries)
			if !ok {
				return nil, nil, false
			}
			pts := sortByDate(s, func(p models.WeightPoint) string { return p.Date })
			labels, values := collect(pts, func(p models.WeightPoint) (string, float64) { return p.Date, p.Weight })
			return labels, values, true
		},
		variant: func(float64) models.Variant { return models.VariantPrimary },
	},
	{
		title: "BMI",
		unit:  "kg/m²",
		extract: func(d models.SeriesData) ([]string, []float64, bool) {
			s, ok := d.(models.BMISeries)
			if !ok {
				return nil, nil, false
			}
			pts := sortByDate(s, func(p models.BMIPoint) string { return p.Date })
			labels, values := collect(pts, func(p models.BMIPoint) (string, float64) { return p.Date, p.BMI })
			return labels, values, true
		},
		variant: bmiVariant,
	},
	{
		title: "Systolic BP",
		unit:  "mmHg",
		extract: func(d models.SeriesData) ([]string, []float64, bool) {
			s, ok := d.(models.BloodPressureSeries)
			if !ok {
				return nil, nil, false
			}
			pts := sortByDate(s, func(p models.BloodPressurePoint) string { return p.Date })
			labels, values := collect(pts, func(p models.BloodPressurePoint) (string, float64) { return p.Date, p.Systolic })
			return labels, values, true
		},
		variant: systolicVariant,
	},
	{
		title: "Heart Rate",
		unit:  "BPM",
		extract: func(d models.SeriesData) ([]string, []float64, bool) {
			s, ok := d.(models.HeartRateSeries)
			if !ok {
				return nil, nil, false
			}
			pts := sortByDate(s, func(p models.HeartRatePoint) string { return p.Date })
			labels, values := collect(pts, func(p models.HeartRatePoint) (string, float64) { return p.Date, p.BPM })
			return labels, values, true
		},
		variant: heartRateVariant,
	},
}

// collect splits points into axis labels and values.
func collect[T any](pts []T, f func(T) (string, float64)) ([]string, []float64) {
	labels := make([]string, len(pts))
	values := make([]float64, len(pts))
	for i, p := range pts {
		d, v := f(p)
		labels[i], values[i] = label(d, i), v
	}
	return labels, values
}

// KPIs builds the four vital cards from the first matching series in all.
// A vital with no series still gets a card, with a "No Data" sparkline.
func KPIs(all []models.GraphSeries) []models.KPI {
	cards := make([]models.KPI, 0, len(kpiSources))
	for _, src := range kpiSources {
		card := models.KPI{
			Title:     src.title,
			Unit:      src.unit,
			Trend:     models.TrendStable,
			Variant:   models.VariantDefault,
			Sparkline: noData(src.title, nil),
		}
		for _, g := range all {
			if g.Data == nil {
				continue
			}
			labels, values, ok := src.extract(g.Data)
			if !ok || len(values) == 0 {
				continue
			}
			latest := values[len(values)-1]
			card.Value = latest
			card.Trend = trend(values)
			card.Variant = src.variant(latest)
			card.Sparkline = sparkline(src.title, labels, values)
			break
		}
		cards = append(cards, card)
	}
	return cards
}

func sparkline(title string, labels []string, values []float64) models.ChartSpec {
	return models.ChartSpec{
		Title: models.Title{Text: title},
		XAxis: &models.Axis{Type: models.AxisCategory, Data: labels},
		YAxis: &models.Axis{Type: models.AxisValue, Scale: true},
		Series: []models.Series{{
			Name:   title,
			Type:   models.SeriesLine,
			Values: values,
			Style:  &models.SeriesStyle{Color: "#1e88e5", Width: 2, Smooth: true, Area: true},
		}},
	}
}

func trend(values []float64) models.Trend {
	if len(values) < 2 {
		return models.TrendStable
	}
	prev, last := values[len(values)-2], values[len(values)-1]
	base := prev
	if base < 0 {
		base = -base
	}
	if base == 0 {
		base = 1
	}
	switch delta := (last - prev) / base; {
	case delta > trendTolerance:
		return models.TrendUp
	case delta < -trendTolerance:
		return models.TrendDown
	}
	return models.TrendStable
}

// Placeholder bands pending clinical review.
func bmiVariant(v float64) models.Variant {
	switch {
	case v <= 0:
		return models.VariantDefault
	case v < 18.5:
		return models.VariantWarning
	case v < 25:
		return models.VariantSuccess
	case v < 30:
		return models.VariantWarning
	}
	return models.VariantError
}

func systolicVariant(v float64) models.Variant {
	switch {
	case v <= 0:
		return models.VariantDefault
	case v < 120:
		return models.VariantSuccess
	case v < 140:
		return models.VariantWarning
	}
	return models.VariantError
}

func heartRateVariant(v float64) models.Variant {
	switch {
	case v <= 0:
		return models.VariantDefault
	case v < 50 || v > 120:
		return models.VariantError
	case v < 60 || v > 100:
		return models.VariantWarning
	}
	return models.VariantSuccess
}

// StabilityVariant maps the backend's stability label to a display variant.
func StabilityVariant(stability string) models.Variant {
	s := strings.ToLower(stability)
	switch {
	case s == "":
		return models.VariantDefault
	case strings.Contains(s, "high risk"):
		return models.VariantError
	case strings.Contains(s, "stable"):
		return models.VariantSuccess
	case strings.Contains(s, "improvement"):
		return models.VariantWarning
	}
	return models.VariantDefault
}
