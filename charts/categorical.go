package charts

import (
	"math"
	"time"

	"github.com/VanitasCaesar1/clinical-dashboard/models"
)

const (
	severityMin = 0
	severityMax = 5

	// Gantt bars narrower than this are widened when drawn so one-day tasks
	// stay visible on multi-year axes.
	ganttMinBarWidthPx = 6
)

// categoryBarChart counts points per category, or sums their explicit
// counts when the backend sent them. Categories keep first-seen order.
func categoryBarChart(name string, data models.CategorySeries) models.ChartSpec {
	pts := sortByDate(data, func(p models.CategoryPoint) string { return p.Date })
	var (
		order  []string
		totals = map[string]float64{}
	)
	for _, p := range pts {
		if _, seen := totals[p.Category]; !seen {
			order = append(order, p.Category)
		}
		if p.HasCount {
			totals[p.Category] += p.Count
		} else {
			totals[p.Category]++
		}
	}
	values := make([]float64, len(order))
	for i, c := range order {
		values[i] = totals[c]
	}
	return models.ChartSpec{
		Title:   models.Title{Text: name},
		Tooltip: &models.Tooltip{Trigger: "axis"},
		XAxis:   &models.Axis{Type: models.AxisCategory, Data: order},
		YAxis:   &models.Axis{Type: models.AxisValue, Name: "Count"},
		Series: []models.Series{{
			Name:   "Count",
			Type:   models.SeriesBar,
			Values: values,
			Style:  &models.SeriesStyle{Color: "#388e3c"},
		}},
	}
}

func multiLineChart(name string, data models.MultiLineSeries) models.ChartSpec {
	pts := sortByDate(data.Points, func(p models.MultiLinePoint) string { return p.Date })
	labels := make([]string, len(pts))
	first := make([]float64, len(pts))
	second := make([]float64, len(pts))
	for i, p := range pts {
		l := p.Date
		if l == "" {
			l = p.Label
		}
		labels[i], first[i], second[i] = label(l, i), p.Line1, p.Line2
	}
	return timeSeriesChart(name, "", labels,
		models.Series{Name: data.Names[0], Type: models.SeriesLine, Values: first, Style: &models.SeriesStyle{Color: "#e74c3c", Width: 2}},
		models.Series{Name: data.Names[1], Type: models.SeriesLine, Values: second, Style: &models.SeriesStyle{Color: "#3498db", Width: 2}},
	)
}

// heatmapChart lays symptoms against dates. A symptom reported twice on the
// same date keeps its highest severity.
func heatmapChart(name string, data models.HeatmapSeries) models.ChartSpec {
	pts := sortByDate(data, func(p models.HeatmapPoint) string { return p.Date })
	dateIdx := map[string]int{}
	symptomIdx := map[string]int{}
	var dates, symptoms []string
	for _, p := range pts {
		if _, ok := dateIdx[p.Date]; !ok {
			dateIdx[p.Date] = len(dates)
			dates = append(dates, p.Date)
		}
		if _, ok := symptomIdx[p.Symptom]; !ok {
			symptomIdx[p.Symptom] = len(symptoms)
			symptoms = append(symptoms, p.Symptom)
		}
	}

	type cell struct{ x, y int }
	cells := map[cell]int{}
	var points []models.DataPoint
	for _, p := range pts {
		c := cell{dateIdx[p.Date], symptomIdx[p.Symptom]}
		if i, ok := cells[c]; ok {
			points[i].Value = math.Max(points[i].Value, p.Severity)
			continue
		}
		cells[c] = len(points)
		points = append(points, models.DataPoint{
			X:     float64(c.x),
			Y:     float64(c.y),
			Value: p.Severity,
			Label: p.Symptom,
		})
	}
	return models.ChartSpec{
		Title:   models.Title{Text: name},
		Tooltip: &models.Tooltip{Trigger: "item"},
		XAxis:   &models.Axis{Type: models.AxisCategory, Data: dates},
		YAxis:   &models.Axis{Type: models.AxisCategory, Data: symptoms},
		VisualMap: &models.VisualMap{
			Min:   severityMin,
			Max:   severityMax,
			Label: "Severity",
			Range: []string{"#2a9d8f", "#29b6f6", "#7c4dff"},
		},
		Series: []models.Series{{Name: "Severity", Type: models.SeriesHeatmap, Points: points}},
	}
}

// timelineChart places each event at its index on the x axis and its
// category on the y axis.
func timelineChart(name string, data models.TimelineSeries) models.ChartSpec {
	pts := sortByDate(data, func(p models.TimelinePoint) string { return p.Date })
	catIdx := map[string]int{}
	var categories []string
	labels := make([]string, len(pts))
	points := make([]models.DataPoint, len(pts))
	for i, p := range pts {
		y, ok := catIdx[p.Category]
		if !ok {
			y = len(categories)
			catIdx[p.Category] = y
			categories = append(categories, p.Category)
		}
		labels[i] = label(p.Date, i)
		points[i] = models.DataPoint{X: float64(i), Y: float64(y), Label: p.Event, Group: p.Category}
	}
	return models.ChartSpec{
		Title:   models.Title{Text: name},
		Tooltip: &models.Tooltip{Trigger: "item"},
		XAxis:   &models.Axis{Type: models.AxisCategory, Data: labels},
		YAxis:   &models.Axis{Type: models.AxisCategory, Data: categories},
		Series:  []models.Series{{Name: "Events", Type: models.SeriesScatter, Points: points, Style: &models.SeriesStyle{Symbol: 14}}},
	}
}

// ganttChart positions each task in days from the earliest start. Tasks
// without a parseable start sit at offset 0; a missing end gives a zero
// duration, which the minimum bar width keeps visible.
func ganttChart(name string, data models.GanttSeries) models.ChartSpec {
	pts := sortByDate(data, func(p models.GanttPoint) string { return p.Start })

	var (
		origin time.Time
		ok     bool
	)
	for _, p := range pts {
		if t, parsed := parseDate(p.Start); parsed && (!ok || t.Before(origin)) {
			origin, ok = t, true
		}
	}

	tasks := make([]string, len(pts))
	bars := make([]models.GanttBar, len(pts))
	for i, p := range pts {
		start, startOK := parseDate(p.Start)
		end, endOK := parseDate(p.End)
		bar := models.GanttBar{Task: p.Task, Start: p.Start, End: p.End, MinWidthPx: ganttMinBarWidthPx}
		if startOK && ok {
			bar.StartOffset = daysBetween(origin, start)
		}
		bar.EndOffset = bar.StartOffset
		if startOK && endOK && end.After(start) {
			bar.DurationDays = daysBetween(start, end)
			bar.EndOffset = bar.StartOffset + bar.DurationDays
		}
		tasks[i] = p.Task
		bars[i] = bar
	}
	return models.ChartSpec{
		Title:   models.Title{Text: name},
		Tooltip: &models.Tooltip{Trigger: "item"},
		XAxis:   &models.Axis{Type: models.AxisValue, Name: "days"},
		YAxis:   &models.Axis{Type: models.AxisCategory, Data: tasks},
		Series:  []models.Series{{Name: "Tasks", Type: models.SeriesGantt, Bars: bars}},
	}
}
