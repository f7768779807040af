package charts

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/VanitasCaesar1/clinical-dashboard/models"
	"pgregory.net/rapid"
)

var propertyEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

type weightReading struct {
	day    int
	weight float64
	hasW   bool
}

func (r weightReading) raw() models.RawPoint {
	p := models.RawPoint{{Key: "date", Value: propertyEpoch.AddDate(0, 0, r.day).Format("2006-01-02")}}
	if r.hasW {
		p = append(p, models.Field{Key: "weight_lb", Value: r.weight})
	}
	return p
}

func drawReadings(t *rapid.T) []weightReading {
	days := rapid.SliceOfNDistinct(rapid.IntRange(0, 3650), 1, 40, rapid.ID[int]).Draw(t, "days")
	out := make([]weightReading, len(days))
	for i, d := range days {
		out[i] = weightReading{
			day:    d,
			weight: float64(rapid.IntRange(80, 400).Draw(t, "weight")),
			hasW:   rapid.Bool().Draw(t, "hasWeight"),
		}
	}
	return out
}

func weightSeries(readings []weightReading) models.GraphSeries {
	raw := make([]models.RawPoint, len(readings))
	for i, r := range readings {
		raw[i] = r.raw()
	}
	return models.NewGraphSeries("Weight", "line", raw)
}

// Resolving the same series twice gives byte-identical output.
func TestProperty01_ResolveIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := weightSeries(drawReadings(t))
		showKPI := rapid.Bool().Draw(t, "showKPI")

		a, err := json.Marshal(Resolve(g, Options{ShowKPI: showKPI}))
		if err != nil {
			t.Fatal(err)
		}
		b, err := json.Marshal(Resolve(g, Options{ShowKPI: showKPI}))
		if err != nil {
			t.Fatal(err)
		}
		if string(a) != string(b) {
			t.Fatalf("non-deterministic output:\n%s\n%s", a, b)
		}
	})
}

// Input order does not matter once every point carries a distinct date.
func TestProperty02_InputOrderIsIrrelevant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		readings := drawReadings(t)
		shuffled := rapid.Permutation(readings).Draw(t, "shuffled")

		a, _ := json.Marshal(Resolve(weightSeries(readings), Options{}))
		b, _ := json.Marshal(Resolve(weightSeries(shuffled), Options{}))
		if string(a) != string(b) {
			t.Fatalf("order-dependent output:\n%s\n%s", a, b)
		}
	})
}

// Every point yields exactly one value; a missing field yields 0.
func TestProperty03_MissingFieldsYieldZero(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		readings := drawReadings(t)
		spec := Resolve(weightSeries(readings), Options{})

		sorted := slices.Clone(readings)
		slices.SortFunc(sorted, func(a, b weightReading) int { return a.day - b.day })

		if len(spec.Series) != 1 {
			t.Fatalf("want 1 series, got %d", len(spec.Series))
		}
		values := spec.Series[0].Values
		if len(values) != len(sorted) {
			t.Fatalf("want %d values, got %d", len(sorted), len(values))
		}
		for i, r := range sorted {
			want := 0.0
			if r.hasW {
				want = r.weight
			}
			if values[i] != want {
				t.Fatalf("value %d: want %v, got %v", i, want, values[i])
			}
		}
	})
}

// Sorting is idempotent: resolving already-sorted input keeps its order.
func TestProperty04_SortByDateIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dates := rapid.SliceOf(rapid.SampledFrom([]string{
			"2022-01-01", "2022-03-15", "2021-12-31", "", "garbage", "03/04/2022", "Jan 2, 2022",
		})).Draw(t, "dates")

		id := func(s string) string { return s }
		once := sortByDate(dates, id)
		twice := sortByDate(once, id)
		if !slices.Equal(once, twice) {
			t.Fatalf("not idempotent: %v then %v", once, twice)
		}
		if len(once) != len(dates) {
			t.Fatalf("lost elements: %v -> %v", dates, once)
		}
	})
}
