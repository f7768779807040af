package charts

import "github.com/VanitasCaesar1/clinical-dashboard/models"

// FilterAll selects every graph.
const FilterAll = "all"

// Filter returns the graphs of the selected type, in their original order.
// An empty selection or "all" keeps everything.
func Filter(graphs []models.GraphSeries, selected string) []models.GraphSeries {
	out := make([]models.GraphSeries, 0, len(graphs))
	if selected == "" || selected == FilterAll {
		return append(out, graphs...)
	}
	want := models.ParseGraphType(selected)
	for _, g := range graphs {
		if g.Type == want {
			out = append(out, g)
		}
	}
	return out
}

// CountByType counts graphs per recognised type plus the "all" total.
func CountByType(graphs []models.GraphSeries) map[string]int {
	counts := map[string]int{FilterAll: len(graphs)}
	for _, t := range models.GraphTypes {
		counts[string(t)] = 0
	}
	for _, g := range graphs {
		if g.Type != models.GraphUnrecognized {
			counts[string(g.Type)]++
		}
	}
	return counts
}

// Pairs groups graphs two per row. The last row holds one graph when the
// count is odd.
func Pairs[T any](items []T) [][]T {
	rows := make([][]T, 0, (len(items)+1)/2)
	for i := 0; i < len(items); i += 2 {
		end := min(i+2, len(items))
		rows = append(rows, items[i:end:end])
	}
	return rows
}
