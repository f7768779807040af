package charts

import (
	"slices"

	"github.com/VanitasCaesar1/clinical-dashboard/models"
)

// Threshold marker lines. BMI: overweight/obesity. BP: systolic staging.
var (
	bmiMarkers = []models.MarkLine{
		{Name: "Overweight", Value: 25, Color: "#f59e0b"},
		{Name: "Obesity", Value: 30, Color: "#ef4444"},
	}
	bloodPressureMarkers = []models.MarkLine{
		{Name: "Elevated", Value: 120, Color: "#facc15"},
		{Name: "Stage 1", Value: 130, Color: "#f59e0b"},
		{Name: "Stage 2", Value: 140, Color: "#ef4444"},
	}
)

const (
	spo2AxisMin = 90
	spo2AxisMax = 100

	temperatureMin     = 95
	temperatureMax     = 105
	defaultTemperature = 98.6
)

func lineStyle() *models.SeriesStyle {
	return &models.SeriesStyle{Color: "#1976d2", Width: 2, Smooth: true, Area: true, Symbol: 7}
}

// timeSeriesChart is the common frame of every single-axis vital chart.
func timeSeriesChart(name, unit string, labels []string, series ...models.Series) models.ChartSpec {
	spec := models.ChartSpec{
		Title:    models.Title{Text: name},
		Tooltip:  &models.Tooltip{Trigger: "axis"},
		XAxis:    &models.Axis{Type: models.AxisCategory, Data: labels},
		YAxis:    &models.Axis{Type: models.AxisValue, Name: unit},
		DataZoom: timeSeriesZoom(),
		Series:   series,
	}
	if len(series) > 1 {
		names := make([]string, len(series))
		for i, s := range series {
			names[i] = s.Name
		}
		spec.Legend = &models.Legend{Data: names}
	}
	return spec
}

func weightChart(name string, data models.WeightSeries) models.ChartSpec {
	pts := sortByDate(data, func(p models.WeightPoint) string { return p.Date })
	labels := make([]string, len(pts))
	values := make([]float64, len(pts))
	for i, p := range pts {
		labels[i], values[i] = label(p.Date, i), p.Weight
	}
	return timeSeriesChart(name, "lb", labels,
		models.Series{Name: "Weight", Type: models.SeriesLine, Values: values, Style: lineStyle()})
}

func bmiChart(name string, data models.BMISeries) models.ChartSpec {
	pts := sortByDate(data, func(p models.BMIPoint) string { return p.Date })
	labels := make([]string, len(pts))
	values := make([]float64, len(pts))
	for i, p := range pts {
		labels[i], values[i] = label(p.Date, i), p.BMI
	}
	return timeSeriesChart(name, "kg/m²", labels, models.Series{
		Name:      "BMI",
		Type:      models.SeriesLine,
		Values:    values,
		MarkLines: slices.Clone(bmiMarkers),
		Style:     lineStyle(),
	})
}

func bloodPressureChart(name string, data models.BloodPressureSeries) models.ChartSpec {
	pts := sortByDate(data, func(p models.BloodPressurePoint) string { return p.Date })
	labels := make([]string, len(pts))
	systolic := make([]float64, len(pts))
	diastolic := make([]float64, len(pts))
	for i, p := range pts {
		labels[i], systolic[i], diastolic[i] = label(p.Date, i), p.Systolic, p.Diastolic
	}
	return timeSeriesChart(name, "mmHg", labels,
		models.Series{
			Name:      "Systolic",
			Type:      models.SeriesLine,
			Values:    systolic,
			MarkLines: slices.Clone(bloodPressureMarkers),
			Style:     &models.SeriesStyle{Color: "#e74c3c", Width: 3},
		},
		models.Series{
			Name:   "Diastolic",
			Type:   models.SeriesLine,
			Values: diastolic,
			Style:  &models.SeriesStyle{Color: "#3498db", Width: 3},
		},
	)
}

func heartRateChart(name string, data models.HeartRateSeries) models.ChartSpec {
	pts := sortByDate(data, func(p models.HeartRatePoint) string { return p.Date })
	labels := make([]string, len(pts))
	values := make([]float64, len(pts))
	for i, p := range pts {
		labels[i], values[i] = label(p.Date, i), p.BPM
	}
	return timeSeriesChart(name, "BPM", labels, models.Series{
		Name:   "Heart Rate",
		Type:   models.SeriesLine,
		Values: values,
		Style:  &models.SeriesStyle{Color: "#ff6b6b", Width: 2, Smooth: true},
	})
}

func spo2Chart(name string, data models.SpO2Series) models.ChartSpec {
	pts := sortByDate(data, func(p models.SpO2Point) string { return p.Date })
	labels := make([]string, len(pts))
	values := make([]float64, len(pts))
	for i, p := range pts {
		labels[i], values[i] = label(p.Date, i), p.Percent
	}
	spec := timeSeriesChart(name, "%", labels, models.Series{
		Name:   "SpO2",
		Type:   models.SeriesLine,
		Values: values,
		Style:  lineStyle(),
	})
	spec.YAxis.Min = floatPtr(spo2AxisMin)
	spec.YAxis.Max = floatPtr(spo2AxisMax)
	return spec
}

// temperatureGauge shows the latest reading only.
func temperatureGauge(name string, data models.TemperatureSeries) models.ChartSpec {
	pts := sortByDate(data, func(p models.TemperaturePoint) string { return p.Date })
	latest := pts[len(pts)-1].Temperature
	if latest == 0 {
		latest = defaultTemperature
	}
	color := "#2ed573"
	switch {
	case latest > 100:
		color = "#ff4757"
	case latest > 99:
		color = "#ffa502"
	}
	return models.ChartSpec{
		Title: models.Title{Text: name},
		Series: []models.Series{{
			Name: "Temperature",
			Type: models.SeriesGauge,
			Gauge: &models.Gauge{
				Value: latest,
				Min:   temperatureMin,
				Max:   temperatureMax,
				Unit:  "°F",
				Color: color,
			},
		}},
	}
}

// genericLineChart plots the first numeric field of each point, or 0.
func genericLineChart(name string, data models.GenericSeries) models.ChartSpec {
	pts := sortByDate(data, func(p models.GenericPoint) string { return p.Date })
	labels := make([]string, len(pts))
	values := make([]float64, len(pts))
	for i, p := range pts {
		labels[i], values[i] = label(p.Date, i), p.Value
	}
	return models.ChartSpec{
		Title:  models.Title{Text: name},
		XAxis:  &models.Axis{Type: models.AxisCategory, Data: labels},
		YAxis:  &models.Axis{Type: models.AxisValue},
		Series: []models.Series{{Type: models.SeriesLine, Values: values, Style: lineStyle()}},
	}
}
