package models

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/spf13/cast"
)

type GraphType string

const (
	GraphLine         GraphType = "line"
	GraphBar          GraphType = "bar"
	GraphHeatmap      GraphType = "heatmap"
	GraphTimeline     GraphType = "timeline"
	GraphGantt        GraphType = "gantt"
	GraphMultiLine    GraphType = "multi-line"
	GraphUnrecognized GraphType = "unrecognized"
)

// GraphTypes lists the recognised types in display order.
var GraphTypes = []GraphType{GraphLine, GraphBar, GraphHeatmap, GraphTimeline, GraphGantt, GraphMultiLine}

// ParseGraphType normalises the backend's graph_type string.
func ParseGraphType(s string) GraphType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "line":
		return GraphLine
	case "bar":
		return GraphBar
	case "heatmap":
		return GraphHeatmap
	case "timeline":
		return GraphTimeline
	case "gantt":
		return GraphGantt
	case "multi-line", "multiline", "multi_line":
		return GraphMultiLine
	default:
		return GraphUnrecognized
	}
}

// Field is one key/value pair of a raw graph point, kept in wire order.
type Field struct {
	Key   string
	Value any
}

// RawPoint is a graph_data element exactly as the backend sent it.
type RawPoint []Field

func (p RawPoint) Lookup(key string) (any, bool) {
	for _, f := range p {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func (p RawPoint) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := p.Lookup(k); ok {
			return true
		}
	}
	return false
}

// Num returns the first non-zero numeric value among keys. Numeric strings
// count. Missing or non-numeric values give 0.
func (p RawPoint) Num(keys ...string) float64 {
	for _, k := range keys {
		v, ok := p.Lookup(k)
		if !ok {
			continue
		}
		if f, ok := toFloat(v, true); ok && f != 0 {
			return f
		}
	}
	return 0
}

// Str returns the first non-empty string value among keys.
func (p RawPoint) Str(keys ...string) string {
	for _, k := range keys {
		v, ok := p.Lookup(k)
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		default:
			s = cast.ToString(t)
		}
		if s != "" {
			return s
		}
	}
	return ""
}

// FirstNumber returns the first field holding a JSON number, in wire order.
// Strings are not considered, even numeric ones.
func (p RawPoint) FirstNumber() (float64, bool) {
	for _, f := range p {
		if v, ok := toFloat(f.Value, false); ok {
			return v, true
		}
	}
	return 0, false
}

// NumericKeys returns the keys of fields holding JSON numbers, in wire order.
func (p RawPoint) NumericKeys() []string {
	var keys []string
	for _, f := range p {
		if _, ok := toFloat(f.Value, false); ok {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

func toFloat(v any, lenient bool) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		if !lenient {
			return 0, false
		}
		f, err := cast.ToFloat64E(strings.TrimSpace(t))
		return f, err == nil
	}
	return 0, false
}

func (p *RawPoint) UnmarshalJSON(data []byte) error {
	*p = nil
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		// Scalars and arrays carry no named fields.
		return nil
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		*p = append(*p, Field{Key: key, Value: v})
	}
	return nil
}

func (p RawPoint) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SeriesData is the typed content of a GraphSeries. The concrete type is
// chosen once, when the series is decoded.
type SeriesData interface {
	Len() int
	seriesData()
}

type WeightPoint struct {
	Date   string
	Weight float64
}

type BMIPoint struct {
	Date string
	BMI  float64
}

type BloodPressurePoint struct {
	Date      string
	Systolic  float64
	Diastolic float64
}

type HeartRatePoint struct {
	Date string
	BPM  float64
}

type SpO2Point struct {
	Date    string
	Percent float64
}

type TemperaturePoint struct {
	Date        string
	Temperature float64
}

type CategoryPoint struct {
	Date     string
	Category string
	Count    float64
	HasCount bool
}

type MultiLinePoint struct {
	Date  string
	Label string
	Line1 float64
	Line2 float64
}

type HeatmapPoint struct {
	Symptom  string
	Date     string
	Severity float64
}

type TimelinePoint struct {
	Date     string
	Event    string
	Category string
	Details  string
}

type GanttPoint struct {
	Task  string
	Start string
	End   string
}

type GenericPoint struct {
	Date   string
	Value  float64
	Fields RawPoint
}

type (
	WeightSeries        []WeightPoint
	BMISeries           []BMIPoint
	BloodPressureSeries []BloodPressurePoint
	HeartRateSeries     []HeartRatePoint
	SpO2Series          []SpO2Point
	TemperatureSeries   []TemperaturePoint
	CategorySeries      []CategoryPoint
	HeatmapSeries       []HeatmapPoint
	TimelineSeries      []TimelinePoint
	GanttSeries         []GanttPoint
	GenericSeries       []GenericPoint
)

type MultiLineSeries struct {
	Names  [2]string
	Points []MultiLinePoint
}

func (s WeightSeries) Len() int        { return len(s) }
func (s BMISeries) Len() int           { return len(s) }
func (s BloodPressureSeries) Len() int { return len(s) }
func (s HeartRateSeries) Len() int     { return len(s) }
func (s SpO2Series) Len() int          { return len(s) }
func (s TemperatureSeries) Len() int   { return len(s) }
func (s CategorySeries) Len() int      { return len(s) }
func (s HeatmapSeries) Len() int       { return len(s) }
func (s TimelineSeries) Len() int      { return len(s) }
func (s GanttSeries) Len() int         { return len(s) }
func (s GenericSeries) Len() int       { return len(s) }
func (s MultiLineSeries) Len() int     { return len(s.Points) }

func (WeightSeries) seriesData()        {}
func (BMISeries) seriesData()           {}
func (BloodPressureSeries) seriesData() {}
func (HeartRateSeries) seriesData()     {}
func (SpO2Series) seriesData()          {}
func (TemperatureSeries) seriesData()   {}
func (CategorySeries) seriesData()      {}
func (HeatmapSeries) seriesData()       {}
func (TimelineSeries) seriesData()      {}
func (GanttSeries) seriesData()         {}
func (GenericSeries) seriesData()       {}
func (MultiLineSeries) seriesData()     {}

// Field names of the backend's graph_data points.
var (
	bmiKeys         = []string{"bmi"}
	systolicKeys    = []string{"systolic", "sbp"}
	diastolicKeys   = []string{"diastolic", "dbp"}
	heartRateKeys   = []string{"heart_rate_bpm", "heart_rate", "pulse", "hr"}
	spo2Keys        = []string{"spo2_percent", "spo2"}
	temperatureKeys = []string{"temperature", "temp"}
	weightKeys      = []string{"weight_lb", "weight"}
	categoryKeys    = []string{"category", "label"}
	eventKeys       = []string{"event", "title", "name"}
)

// GraphSeries is one named, typed series from a PatientRecord.
type GraphSeries struct {
	Name         string
	Type         GraphType
	SummaryOfDay string
	Data         SeriesData

	declaredType string
	raw          []RawPoint
}

type graphSeriesWire struct {
	Name         string     `json:"graph_name"`
	Type         string     `json:"graph_type"`
	Data         []RawPoint `json:"graph_data"`
	SummaryOfDay string     `json:"summary_of_day"`
}

// NewGraphSeries classifies raw points the same way decoding does.
func NewGraphSeries(name, graphType string, points []RawPoint) GraphSeries {
	g := GraphSeries{
		Name:         name,
		Type:         ParseGraphType(graphType),
		declaredType: graphType,
		raw:          points,
	}
	g.Data = classify(g.Type, name, points)
	return g
}

// Points returns the raw points in wire order. Callers must not modify them.
func (g GraphSeries) Points() []RawPoint { return g.raw }

func (g *GraphSeries) UnmarshalJSON(data []byte) error {
	var w graphSeriesWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*g = NewGraphSeries(w.Name, w.Type, w.Data)
	g.SummaryOfDay = w.SummaryOfDay
	return nil
}

func (g GraphSeries) MarshalJSON() ([]byte, error) {
	t := g.declaredType
	if t == "" {
		t = string(g.Type)
	}
	points := g.raw
	if points == nil {
		points = []RawPoint{}
	}
	return json.Marshal(graphSeriesWire{
		Name:         g.Name,
		Type:         t,
		Data:         points,
		SummaryOfDay: g.SummaryOfDay,
	})
}

func anyHas(points []RawPoint, keys ...string) bool {
	for _, p := range points {
		if p.Has(keys...) {
			return true
		}
	}
	return false
}

func classify(t GraphType, name string, points []RawPoint) SeriesData {
	switch t {
	case GraphLine:
		return classifyLine(points)
	case GraphBar:
		out := make(CategorySeries, len(points))
		for i, p := range points {
			out[i] = CategoryPoint{
				Date:     p.Str("date"),
				Category: p.Str(categoryKeys...),
				Count:    p.Num("count", "value"),
				HasCount: p.Has("count", "value"),
			}
		}
		return out
	case GraphMultiLine:
		return classifyMultiLine(name, points)
	case GraphHeatmap:
		out := make(HeatmapSeries, len(points))
		for i, p := range points {
			out[i] = HeatmapPoint{Symptom: p.Str("symptom"), Date: p.Str("date"), Severity: p.Num("severity")}
		}
		return out
	case GraphTimeline:
		out := make(TimelineSeries, len(points))
		for i, p := range points {
			out[i] = TimelinePoint{
				Date:     p.Str("date"),
				Event:    p.Str(eventKeys...),
				Category: p.Str("category"),
				Details:  p.Str("details", "description"),
			}
		}
		return out
	case GraphGantt:
		out := make(GanttSeries, len(points))
		for i, p := range points {
			out[i] = GanttPoint{Task: p.Str("task", "name"), Start: p.Str("start"), End: p.Str("end")}
		}
		return out
	}
	return generic(points)
}

func classifyLine(points []RawPoint) SeriesData {
	switch {
	case anyHas(points, bmiKeys...):
		out := make(BMISeries, len(points))
		for i, p := range points {
			out[i] = BMIPoint{Date: p.Str("date"), BMI: p.Num(bmiKeys...)}
		}
		return out
	case anyHas(points, slices.Concat(systolicKeys, diastolicKeys)...):
		out := make(BloodPressureSeries, len(points))
		for i, p := range points {
			out[i] = BloodPressurePoint{
				Date:      p.Str("date"),
				Systolic:  p.Num(systolicKeys...),
				Diastolic: p.Num(diastolicKeys...),
			}
		}
		return out
	case anyHas(points, heartRateKeys...):
		out := make(HeartRateSeries, len(points))
		for i, p := range points {
			out[i] = HeartRatePoint{Date: p.Str("date"), BPM: p.Num(heartRateKeys...)}
		}
		return out
	case anyHas(points, spo2Keys...):
		out := make(SpO2Series, len(points))
		for i, p := range points {
			out[i] = SpO2Point{Date: p.Str("date"), Percent: p.Num(spo2Keys...)}
		}
		return out
	case anyHas(points, temperatureKeys...):
		out := make(TemperatureSeries, len(points))
		for i, p := range points {
			out[i] = TemperaturePoint{Date: p.Str("date"), Temperature: p.Num(temperatureKeys...)}
		}
		return out
	case anyHas(points, weightKeys...):
		out := make(WeightSeries, len(points))
		for i, p := range points {
			out[i] = WeightPoint{Date: p.Str("date"), Weight: p.Num(weightKeys...)}
		}
		return out
	}
	return generic(points)
}

func classifyMultiLine(name string, points []RawPoint) MultiLineSeries {
	keys := [2]string{"line_1", "line_2"}
	names := [2]string{"Line 1", "Line 2"}
	if !anyHas(points, keys[0], keys[1]) {
		// Fall back to the first two numeric fields of the first point that has two.
		for _, p := range points {
			if nk := p.NumericKeys(); len(nk) >= 2 {
				keys = [2]string{nk[0], nk[1]}
				names = keys
				break
			}
		}
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "blood pressure") || strings.Contains(name, "BP") {
		names = [2]string{"Systolic", "Diastolic"}
	}
	out := MultiLineSeries{Names: names, Points: make([]MultiLinePoint, len(points))}
	for i, p := range points {
		out.Points[i] = MultiLinePoint{
			Date:  p.Str("date"),
			Label: p.Str("encounter", "label"),
			Line1: p.Num(keys[0]),
			Line2: p.Num(keys[1]),
		}
	}
	return out
}

func generic(points []RawPoint) GenericSeries {
	out := make(GenericSeries, len(points))
	for i, p := range points {
		v, _ := p.FirstNumber()
		out[i] = GenericPoint{Date: p.Str("date"), Value: v, Fields: p}
	}
	return out
}
