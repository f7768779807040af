package models

// ChartSpec is a declarative, engine-agnostic chart description. Field names
// follow the charting engine the dashboard renders with so the UI can pass
// most of it through untouched.
type ChartSpec struct {
	Title     Title      `json:"title"`
	Tooltip   *Tooltip   `json:"tooltip,omitempty"`
	Legend    *Legend    `json:"legend,omitempty"`
	XAxis     *Axis      `json:"xAxis,omitempty"`
	YAxis     *Axis      `json:"yAxis,omitempty"`
	VisualMap *VisualMap `json:"visualMap,omitempty"`
	DataZoom  []DataZoom `json:"dataZoom,omitempty"`
	Series    []Series   `json:"series"`
	KPIs      []KPI      `json:"kpis,omitempty"`
}

// HasData reports whether the spec has anything to draw.
func (c ChartSpec) HasData() bool { return len(c.Series) > 0 }

type Title struct {
	Text    string `json:"text"`
	Subtext string `json:"subtext,omitempty"`
}

type Tooltip struct {
	Trigger string `json:"trigger"`
}

type Legend struct {
	Data []string `json:"data"`
}

type AxisType string

const (
	AxisCategory AxisType = "category"
	AxisValue    AxisType = "value"
)

type Axis struct {
	Type  AxisType `json:"type"`
	Name  string   `json:"name,omitempty"`
	Data  []string `json:"data,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Scale bool     `json:"scale,omitempty"`
}

type VisualMap struct {
	Min   float64  `json:"min"`
	Max   float64  `json:"max"`
	Label string   `json:"text,omitempty"`
	Range []string `json:"inRange,omitempty"`
}

type DataZoom struct {
	Type    string `json:"type"`
	MinSpan int    `json:"minSpan,omitempty"`
}

type SeriesType string

const (
	SeriesLine    SeriesType = "line"
	SeriesBar     SeriesType = "bar"
	SeriesScatter SeriesType = "scatter"
	SeriesHeatmap SeriesType = "heatmap"
	SeriesGantt   SeriesType = "gantt"
	SeriesGauge   SeriesType = "gauge"
)

// Series is one drawable data set. Exactly one of Values, Points, Bars or
// Gauge is populated depending on Type.
type Series struct {
	Name      string       `json:"name,omitempty"`
	Type      SeriesType   `json:"type"`
	Values    []float64    `json:"values,omitempty"`
	Points    []DataPoint  `json:"points,omitempty"`
	Bars      []GanttBar   `json:"bars,omitempty"`
	Gauge     *Gauge       `json:"gauge,omitempty"`
	MarkLines []MarkLine   `json:"markLines,omitempty"`
	MarkArea  *MarkArea    `json:"markArea,omitempty"`
	Style     *SeriesStyle `json:"style,omitempty"`
}

// DataPoint is a positioned value: X/Y are axis indexes or values, Value is
// the encoded magnitude for heatmaps.
type DataPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Value float64 `json:"value"`
	Label string  `json:"label,omitempty"`
	Group string  `json:"group,omitempty"`
}

// GanttBar offsets are in days from the earliest task start.
type GanttBar struct {
	Task         string  `json:"task"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	StartOffset  float64 `json:"startOffset"`
	EndOffset    float64 `json:"endOffset"`
	DurationDays float64 `json:"durationDays"`
	MinWidthPx   int     `json:"minWidthPx"`
}

type Gauge struct {
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Unit  string  `json:"unit"`
	Color string  `json:"color"`
}

type MarkLine struct {
	Name  string  `json:"name"`
	Value float64 `json:"yAxis"`
	Color string  `json:"color,omitempty"`
}

type MarkArea struct {
	Name string  `json:"name"`
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

type SeriesStyle struct {
	Color  string `json:"color,omitempty"`
	Width  int    `json:"width,omitempty"`
	Smooth bool   `json:"smooth,omitempty"`
	Area   bool   `json:"area,omitempty"`
	Symbol int    `json:"symbolSize,omitempty"`
}

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

type Variant string

const (
	VariantPrimary Variant = "primary"
	VariantSuccess Variant = "success"
	VariantWarning Variant = "warning"
	VariantError   Variant = "error"
	VariantDefault Variant = "default"
)

// KPI is a compact vital card with its sparkline.
type KPI struct {
	Title     string    `json:"title"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Trend     Trend     `json:"trend"`
	Variant   Variant   `json:"variant"`
	Sparkline ChartSpec `json:"sparkline"`
}
