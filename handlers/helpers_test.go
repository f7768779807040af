package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/VanitasCaesar1/clinical-dashboard/cache"
	"github.com/VanitasCaesar1/clinical-dashboard/models"
	"github.com/VanitasCaesar1/clinical-dashboard/store"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const patientsJSON = `{
	"patients": [
		{
			"_id": "p1",
			"ai_response": {
				"patient_demographics": {
					"patient_id": "MRN-1001",
					"name": {"first": "Maria", "last": "Alfaro"},
					"contact": {"phone": "555-0100"}
				},
				"vitals": {"stability": "Stable"},
				"labs": [{"test_name": "Glucose", "unit": "mg/dL", "reference_range": "70-99",
					"values": [{"date": "2022-02-01", "value": 104}, {"date": "2022-01-01", "value": 95}]}],
				"patient_timeline": [
					{"date": "2022-03-01", "category": "lab", "title": "A1c"},
					{"date": "2022-01-01", "category": "encounter", "title": "Intake"}
				],
				"graphs": [
					{"graph_name": "Blood Pressure", "graph_type": "line",
						"graph_data": [{"date": "2022-02-01", "systolic": 132, "diastolic": 84}, {"date": "2022-01-01", "systolic": 118, "diastolic": 76}]},
					{"graph_name": "Visits", "graph_type": "bar", "graph_data": [{"category": "ER"}, {"category": "ER"}]},
					{"graph_name": "Heart Rate", "graph_type": "line", "graph_data": [{"date": "2022-01-01", "heart_rate": 72}]}
				]
			}
		},
		{"_id": "p2", "ai_response": {"patient_demographics": {"patient_id": "MRN-2002", "name": {"first": "John", "last": "Okafor"}}}}
	]
}`

type fetcherFunc func(ctx context.Context) (models.PatientCollection, error)

func (f fetcherFunc) FetchPatients(ctx context.Context) (models.PatientCollection, error) {
	return f(ctx)
}

func sampleCollection(t *testing.T) models.PatientCollection {
	t.Helper()
	var c models.PatientCollection
	require.NoError(t, json.Unmarshal([]byte(patientsJSON), &c))
	return c
}

// seededStore returns a store whose cache already holds the sample patients.
func seededStore(t *testing.T, fetch fetcherFunc) *store.Store {
	t.Helper()
	coll := sampleCollection(t)
	first := true
	s := store.New(cache.NewMemory(), fetcherFunc(func(ctx context.Context) (models.PatientCollection, error) {
		if first {
			first = false
			return coll, nil
		}
		return fetch(ctx)
	}), zap.NewNop(), 0)
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)
	return s
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func do(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}
