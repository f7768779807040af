package charts

import (
	"strings"

	"github.com/VanitasCaesar1/clinical-dashboard/models"
)

const defaultTimelineColor = "#007bff"

var timelineColors = map[string]string{
	"procedure":    "#e74c3c",
	"imaging":      "#9b59b6",
	"immunization": "#f39c12",
	"lab":          "#27ae60",
	"encounter":    "#2980b9",
	"note":         "#16a085",
	"medication":   "#8e44ad",
}

// TimelineEntry is a timeline event with its display color.
type TimelineEntry struct {
	models.TimelineEvent
	Color string `json:"color"`
}

// Timeline orders a patient's events by date and assigns category colors.
func Timeline(events []models.TimelineEvent) []TimelineEntry {
	sorted := sortByDate(events, func(e models.TimelineEvent) string { return e.Date })
	out := make([]TimelineEntry, len(sorted))
	for i, e := range sorted {
		color, ok := timelineColors[strings.ToLower(e.Category)]
		if !ok {
			color = defaultTimelineColor
		}
		out[i] = TimelineEntry{TimelineEvent: e, Color: color}
	}
	return out
}
