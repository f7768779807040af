package charts

import (
	"encoding/json"
	"testing"

	"github.com/VanitasCaesar1/clinical-dashboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSeries(t *testing.T, js string) models.GraphSeries {
	t.Helper()
	var g models.GraphSeries
	require.NoError(t, json.Unmarshal([]byte(js), &g))
	return g
}

func markValues(lines []models.MarkLine) []float64 {
	out := make([]float64, len(lines))
	for i, l := range lines {
		out[i] = l.Value
	}
	return out
}

func TestResolveBloodPressure(t *testing.T) {
	g := mustSeries(t, `{
		"graph_name": "Blood Pressure Trend",
		"graph_type": "line",
		"graph_data": [
			{"date": "2022-02-01", "systolic": 132, "diastolic": 84},
			{"date": "2022-01-01", "systolic": 118, "diastolic": 76}
		]
	}`)

	spec := Resolve(g, Options{})

	require.Len(t, spec.Series, 2)
	assert.Equal(t, "Systolic", spec.Series[0].Name)
	assert.Equal(t, []float64{118, 132}, spec.Series[0].Values)
	assert.Equal(t, "Diastolic", spec.Series[1].Name)
	assert.Equal(t, []float64{76, 84}, spec.Series[1].Values)
	assert.Equal(t, []float64{120, 130, 140}, markValues(spec.Series[0].MarkLines))
	assert.Equal(t, []string{"2022-01-01", "2022-02-01"}, spec.XAxis.Data)
	assert.Equal(t, "mmHg", spec.YAxis.Name)
	assert.Equal(t, []string{"Systolic", "Diastolic"}, spec.Legend.Data)
}

func TestResolveBloodPressureAliases(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"BP","graph_type":"line","graph_data":[{"date":"2022-01-01","sbp":"121","dbp":79}]}`)

	spec := Resolve(g, Options{})

	require.Len(t, spec.Series, 2)
	assert.Equal(t, []float64{121}, spec.Series[0].Values)
	assert.Equal(t, []float64{79}, spec.Series[1].Values)
}

func TestResolveGantt(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Care plan","graph_type":"gantt","graph_data":[{"task":"PT eval","start":"2022-01-01","end":"2022-01-05"}]}`)

	spec := Resolve(g, Options{})

	require.Len(t, spec.Series, 1)
	require.Len(t, spec.Series[0].Bars, 1)
	bar := spec.Series[0].Bars[0]
	assert.Equal(t, models.SeriesGantt, spec.Series[0].Type)
	assert.Equal(t, "PT eval", bar.Task)
	assert.InDelta(t, 4, bar.DurationDays, 1e-9)
	assert.InDelta(t, 0, bar.StartOffset, 1e-9)
	assert.InDelta(t, 4, bar.EndOffset, 1e-9)
	assert.Equal(t, ganttMinBarWidthPx, bar.MinWidthPx)
	assert.Equal(t, []string{"PT eval"}, spec.YAxis.Data)
}

func TestResolveGanttShortAndOpenEndedTasks(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Plan","graph_type":"gantt","graph_data":[
		{"task":"Follow-up","start":"2022-03-01","end":"2022-03-01"},
		{"task":"Rehab","start":"2022-01-01","end":"2022-02-01"},
		{"task":"Unknown end","start":"2022-01-10"}
	]}`)

	spec := Resolve(g, Options{})

	bars := spec.Series[0].Bars
	require.Len(t, bars, 3)
	assert.Equal(t, "Rehab", bars[0].Task)
	assert.InDelta(t, 31, bars[0].DurationDays, 1e-9)
	assert.Equal(t, "Unknown end", bars[1].Task)
	assert.InDelta(t, 9, bars[1].StartOffset, 1e-9)
	assert.Zero(t, bars[1].DurationDays)
	assert.Equal(t, "Follow-up", bars[2].Task)
	assert.Zero(t, bars[2].DurationDays)
	for _, b := range bars {
		assert.Equal(t, ganttMinBarWidthPx, b.MinWidthPx)
	}
}

func TestResolveEmptySeries(t *testing.T) {
	for name, js := range map[string]string{
		"empty data":   `{"graph_name":"Weight","graph_type":"line","graph_data":[]}`,
		"missing data": `{"graph_name":"Weight","graph_type":"line"}`,
		"unknown type": `{"graph_name":"Other","graph_type":"radar","graph_data":[]}`,
		"gantt":        `{"graph_name":"Plan","graph_type":"gantt","graph_data":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			spec := Resolve(mustSeries(t, js), Options{})
			assert.Equal(t, "No Data", spec.Title.Text)
			assert.Empty(t, spec.Series)
			assert.False(t, spec.HasData())
		})
	}
}

func TestResolveEmptyMentionsPatient(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Weight","graph_type":"line","graph_data":[]}`)
	patient := &models.DemographicsProjection{ID: "p1"}
	patient.Name = models.PersonName{First: "Maria", Last: "Alfaro"}

	spec := Resolve(g, Options{Patient: patient})

	assert.Equal(t, "No Data", spec.Title.Text)
	assert.Equal(t, "No data recorded for Maria Alfaro", spec.Title.Subtext)
}

func TestResolveMissingFieldsBecomeZero(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Weight","graph_type":"line","graph_data":[
		{"date":"2022-01-01","weight_lb":180},
		{"date":"2022-02-01"},
		{"date":"2022-03-01","weight_lb":null}
	]}`)

	spec := Resolve(g, Options{})

	require.Len(t, spec.Series, 1)
	assert.Equal(t, []float64{180, 0, 0}, spec.Series[0].Values)
	assert.Equal(t, "lb", spec.YAxis.Name)
}

func TestResolveUndatedPointsKeepOrderAfterDated(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Weight","graph_type":"line","graph_data":[
		{"weight_lb":1},
		{"date":"2022-02-01","weight_lb":2},
		{"date":"not a date","weight_lb":3},
		{"date":"2022-01-01","weight_lb":4},
		{"date":"12","weight_lb":5},
		{"date":"10:30","weight_lb":6}
	]}`)

	spec := Resolve(g, Options{})

	assert.Equal(t, []float64{4, 2, 1, 3, 5, 6}, spec.Series[0].Values)
	assert.Equal(t, []string{"2022-01-01", "2022-02-01", "Item 3", "not a date", "12", "10:30"}, spec.XAxis.Data)
}

func TestResolveBMIMarkers(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"BMI","graph_type":"line","graph_data":[{"date":"2022-01-01","bmi":31.2,"weight_lb":200}]}`)

	spec := Resolve(g, Options{})

	require.Len(t, spec.Series, 1)
	assert.Equal(t, "BMI", spec.Series[0].Name)
	assert.Equal(t, []float64{31.2}, spec.Series[0].Values)
	assert.Equal(t, []float64{25, 30}, markValues(spec.Series[0].MarkLines))
}

func TestResolveHeartRate(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Pulse","graph_type":"line","graph_data":[{"date":"2022-01-02","heart_rate_bpm":88},{"date":"2022-01-01","heart_rate_bpm":72}]}`)

	spec := Resolve(g, Options{})

	assert.Equal(t, "Heart Rate", spec.Series[0].Name)
	assert.Equal(t, []float64{72, 88}, spec.Series[0].Values)
	assert.Equal(t, "BPM", spec.YAxis.Name)
}

func TestResolveSpO2ClampsAxis(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Oxygen","graph_type":"line","graph_data":[{"date":"2022-01-01","spo2_percent":97}]}`)

	spec := Resolve(g, Options{})

	require.NotNil(t, spec.YAxis.Min)
	require.NotNil(t, spec.YAxis.Max)
	assert.Equal(t, 90.0, *spec.YAxis.Min)
	assert.Equal(t, 100.0, *spec.YAxis.Max)
	assert.Equal(t, []float64{97}, spec.Series[0].Values)
}

func TestResolveTemperatureGauge(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Temperature","graph_type":"line","graph_data":[
		{"date":"2022-01-02","temperature":100.4},
		{"date":"2022-01-01","temperature":98.1}
	]}`)

	spec := Resolve(g, Options{})

	require.Len(t, spec.Series, 1)
	gauge := spec.Series[0].Gauge
	require.NotNil(t, gauge)
	assert.Equal(t, models.SeriesGauge, spec.Series[0].Type)
	assert.Equal(t, 100.4, gauge.Value)
	assert.Equal(t, "#ff4757", gauge.Color)
	assert.Equal(t, 95.0, gauge.Min)
	assert.Equal(t, 105.0, gauge.Max)
}

func TestResolveGenericFallbackUsesFirstNumber(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Misc","graph_type":"radar","graph_data":[
		{"date":"2022-01-02","note":"x","reading":"7","score":5,"other":9},
		{"date":"2022-01-01","a":3},
		{"date":"2022-01-03","note":"nothing numeric"}
	]}`)

	spec := Resolve(g, Options{})

	require.Len(t, spec.Series, 1)
	assert.Equal(t, models.SeriesLine, spec.Series[0].Type)
	assert.Equal(t, []float64{3, 5, 0}, spec.Series[0].Values)
	assert.Equal(t, "Misc", spec.Title.Text)
}

func TestResolveGenericLineWithoutKnownFields(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"A1c","graph_type":"line","graph_data":[{"value":5.6},{"value":5.9}]}`)

	spec := Resolve(g, Options{})

	assert.Equal(t, []float64{5.6, 5.9}, spec.Series[0].Values)
	assert.Equal(t, []string{"Item 1", "Item 2"}, spec.XAxis.Data)
}

func TestResolveBarCounts(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"BP categories","graph_type":"bar","graph_data":[
		{"date":"2022-03-01","category":"Stage 1"},
		{"date":"2022-01-01","category":"Normal"},
		{"date":"2022-02-01","category":"Stage 1"},
		{"date":"2022-04-01"}
	]}`)

	spec := Resolve(g, Options{})

	assert.Equal(t, []string{"Normal", "Stage 1", ""}, spec.XAxis.Data)
	assert.Equal(t, []float64{1, 2, 1}, spec.Series[0].Values)
	assert.Equal(t, models.SeriesBar, spec.Series[0].Type)
}

func TestResolveBarExplicitCounts(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Visits","graph_type":"bar","graph_data":[{"category":"ER","count":2},{"category":"Clinic","count":"5"},{"category":"ER","count":1}]}`)

	spec := Resolve(g, Options{})

	assert.Equal(t, []string{"ER", "Clinic"}, spec.XAxis.Data)
	assert.Equal(t, []float64{3, 5}, spec.Series[0].Values)
}

func TestResolveMultiLine(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Blood pressure by encounter","graph_type":"multiline","graph_data":[
		{"encounter":"Visit 2","date":"2022-02-01","line_1":130,"line_2":85},
		{"encounter":"Visit 1","date":"2022-01-01","line_1":120,"line_2":80}
	]}`)

	spec := Resolve(g, Options{})

	require.Len(t, spec.Series, 2)
	assert.Equal(t, "Systolic", spec.Series[0].Name)
	assert.Equal(t, []float64{120, 130}, spec.Series[0].Values)
	assert.Equal(t, "Diastolic", spec.Series[1].Name)
	assert.Equal(t, []float64{80, 85}, spec.Series[1].Values)
}

func TestResolveMultiLineFallsBackToNumericFields(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Lipids","graph_type":"multi-line","graph_data":[{"encounter":"A","ldl":130,"hdl":45}]}`)

	spec := Resolve(g, Options{})

	assert.Equal(t, "ldl", spec.Series[0].Name)
	assert.Equal(t, "hdl", spec.Series[1].Name)
	assert.Equal(t, []string{"A"}, spec.XAxis.Data)
}

func TestResolveHeatmap(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Symptoms","graph_type":"heatmap","graph_data":[
		{"symptom":"Pain","date":"2022-01-02","severity":3},
		{"symptom":"Nausea","date":"2022-01-01","severity":1},
		{"symptom":"Pain","date":"2022-01-01","severity":2},
		{"symptom":"Pain","date":"2022-01-02","severity":4}
	]}`)

	spec := Resolve(g, Options{})

	require.NotNil(t, spec.VisualMap)
	assert.Equal(t, 0.0, spec.VisualMap.Min)
	assert.Equal(t, 5.0, spec.VisualMap.Max)
	assert.Equal(t, []string{"2022-01-01", "2022-01-02"}, spec.XAxis.Data)
	assert.Equal(t, []string{"Nausea", "Pain"}, spec.YAxis.Data)
	assert.Equal(t, []models.DataPoint{
		{X: 0, Y: 0, Value: 1, Label: "Nausea"},
		{X: 0, Y: 1, Value: 2, Label: "Pain"},
		{X: 1, Y: 1, Value: 4, Label: "Pain"},
	}, spec.Series[0].Points)
}

func TestResolveHeatmapZeroSeverityIsSent(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Symptoms","graph_type":"heatmap","graph_data":[
		{"symptom":"cough","date":"2022-01-01","severity":0},
		{"symptom":"cough","date":"2022-01-02","severity":3}
	]}`)

	out, err := json.Marshal(Resolve(g, Options{}).Series[0].Points)
	require.NoError(t, err)

	var cells []map[string]any
	require.NoError(t, json.Unmarshal(out, &cells))
	require.Len(t, cells, 2)
	assert.Equal(t, 0.0, cells[0]["value"])
	assert.Equal(t, 3.0, cells[1]["value"])
}

func TestResolveTimeline(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Events","graph_type":"timeline","graph_data":[
		{"date":"2022-05-01","event":"Colonoscopy","category":"procedure"},
		{"date":"2022-01-01","title":"Flu shot","category":"immunization"},
		{"date":"2022-03-01","event":"CT","category":"procedure"}
	]}`)

	spec := Resolve(g, Options{})

	pts := spec.Series[0].Points
	require.Len(t, pts, 3)
	assert.Equal(t, "Flu shot", pts[0].Label)
	assert.Equal(t, 0.0, pts[0].X)
	assert.Equal(t, "CT", pts[1].Label)
	assert.Equal(t, 1.0, pts[1].Y)
	assert.Equal(t, []string{"immunization", "procedure"}, spec.YAxis.Data)
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Weight","graph_type":"line","graph_data":[
		{"date":"2022-03-01","weight_lb":190},
		{"date":"2022-01-01","weight_lb":200}
	]}`)
	before, err := json.Marshal(g)
	require.NoError(t, err)

	Resolve(g, Options{ShowKPI: true})

	after, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
	assert.Equal(t, "2022-03-01", g.Data.(models.WeightSeries)[0].Date)
}

func TestResolveIsDeterministic(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"Symptoms","graph_type":"heatmap","graph_data":[
		{"symptom":"Pain","date":"2022-01-02","severity":3},
		{"symptom":"Cough","date":"2022-01-01","severity":1}
	]}`)

	first, err := json.Marshal(Resolve(g, Options{ShowKPI: true}))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(Resolve(g, Options{ShowKPI: true}))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestResolveMarkersAreNotShared(t *testing.T) {
	g := mustSeries(t, `{"graph_name":"BMI","graph_type":"line","graph_data":[{"bmi":24}]}`)

	spec := Resolve(g, Options{})
	spec.Series[0].MarkLines[0].Value = 999

	again := Resolve(g, Options{})
	assert.Equal(t, 25.0, again.Series[0].MarkLines[0].Value)
}
