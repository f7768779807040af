// Package charts turns a patient's graph series into declarative chart
// specifications. Nothing here does I/O or modifies its input series.
package charts

import (
	"fmt"

	"github.com/VanitasCaesar1/clinical-dashboard/models"
)

const noDataTitle = "No Data"

// Options tune Resolve. AllSeries is the patient's full graph collection and
// is only consulted when ShowKPI is set.
type Options struct {
	ShowKPI   bool
	AllSeries []models.GraphSeries
	Patient   *models.DemographicsProjection
}

// Resolve builds the chart specification for one series.
func Resolve(series models.GraphSeries, opts Options) models.ChartSpec {
	spec := resolveSeries(series, opts)
	if opts.ShowKPI {
		all := opts.AllSeries
		if all == nil {
			all = []models.GraphSeries{series}
		}
		spec.KPIs = KPIs(all)
	}
	return spec
}

func resolveSeries(series models.GraphSeries, opts Options) models.ChartSpec {
	if series.Data == nil || series.Data.Len() == 0 {
		return noData(series.Name, opts.Patient)
	}
	switch d := series.Data.(type) {
	case models.WeightSeries:
		return weightChart(series.Name, d)
	case models.BMISeries:
		return bmiChart(series.Name, d)
	case models.BloodPressureSeries:
		return bloodPressureChart(series.Name, d)
	case models.HeartRateSeries:
		return heartRateChart(series.Name, d)
	case models.SpO2Series:
		return spo2Chart(series.Name, d)
	case models.TemperatureSeries:
		return temperatureGauge(series.Name, d)
	case models.CategorySeries:
		return categoryBarChart(series.Name, d)
	case models.MultiLineSeries:
		return multiLineChart(series.Name, d)
	case models.HeatmapSeries:
		return heatmapChart(series.Name, d)
	case models.TimelineSeries:
		return timelineChart(series.Name, d)
	case models.GanttSeries:
		return ganttChart(series.Name, d)
	case models.GenericSeries:
		return genericLineChart(series.Name, d)
	}
	return noData(series.Name, opts.Patient)
}

func noData(name string, patient *models.DemographicsProjection) models.ChartSpec {
	sub := name
	if patient != nil {
		if full := patient.Name.Full(); full != "" {
			sub = fmt.Sprintf("No data recorded for %s", full)
		}
	}
	return models.ChartSpec{Title: models.Title{Text: noDataTitle, Subtext: sub}}
}

// label is the category-axis label for a point: its date, or a positional
// placeholder when the date is missing.
func label(date string, i int) string {
	if date != "" {
		return date
	}
	return fmt.Sprintf("Item %d", i+1)
}

func floatPtr(v float64) *float64 { return &v }

func timeSeriesZoom() []models.DataZoom {
	return []models.DataZoom{{Type: "inside", MinSpan: 10}, {Type: "slider"}}
}
