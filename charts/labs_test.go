package charts

import (
	"encoding/json"
	"testing"

	"github.com/VanitasCaesar1/clinical-dashboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLab(t *testing.T) {
	var test models.LabTest
	require.NoError(t, json.Unmarshal([]byte(`{
		"test_name": "Glucose",
		"unit": "mg/dL",
		"reference_range": "70 – 99",
		"values": [
			{"date": "2022-03-01", "value": "142 (H)"},
			{"date": "2022-01-01", "value": 95}
		]
	}`), &test))

	spec := ResolveLab(test)

	require.Len(t, spec.Series, 1)
	s := spec.Series[0]
	assert.Equal(t, models.SeriesScatter, s.Type)
	assert.Equal(t, "#9c27b0", s.Style.Color)
	assert.Equal(t, []string{"2022-01-01", "2022-03-01"}, spec.XAxis.Data)
	require.Len(t, s.Points, 2)
	assert.Equal(t, 95.0, s.Points[0].Y)
	assert.Equal(t, 142.0, s.Points[1].Y)
	assert.Equal(t, "142 (H)", s.Points[1].Label)
	require.NotNil(t, s.MarkArea)
	assert.Equal(t, 70.0, s.MarkArea.From)
	assert.Equal(t, 99.0, s.MarkArea.To)
	assert.Equal(t, "mg/dL", spec.YAxis.Name)
}

func TestResolveLabWithoutValues(t *testing.T) {
	spec := ResolveLab(models.LabTest{Name: "Lipase"})

	assert.Equal(t, "No Data", spec.Title.Text)
	assert.Equal(t, "Lipase", spec.Title.Subtext)
}

func TestParseReferenceRange(t *testing.T) {
	tests := []struct {
		in     string
		lo, hi float64
		ok     bool
	}{
		{"70-99", 70, 99, true},
		{"70 - 99 mg/dL", 70, 99, true},
		{"3.5–5.0", 3.5, 5.0, true},
		{"<200", 0, 200, true},
		{"<= 5.7 %", 0, 5.7, true},
		{"-2-2", -2, 2, true},
		{"99-70", 0, 0, false},
		{"negative", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lo, hi, ok := parseReferenceRange(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}
