package report

import (
	"fmt"
	"io"

	"github.com/gmaffy/genbank-qc/filter"
	"github.com/gmaffy/genbank-qc/stats"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	passedColor   = "#8c8c8c"
	rejectedColor = "#d9d9d9"
)

func metric(c filter.Criterion, r stats.Record) float64 {
	switch c {
	case filter.Unknowns:
		return float64(r.Unknowns)
	case filter.Contigs:
		return float64(r.Contigs)
	case filter.AssemblySize:
		return float64(r.AssemblySize)
	}
	return r.Distance
}

// createScatterChart plots every genome of table for criterion c. Genomes c
// rejected get the criterion colour, genomes rejected by an earlier stage are
// greyed out.
func createScatterChart(table *stats.Table, state *filter.State, rep FailedReport, tol filter.Tolerances, c filter.Criterion) *charts.Scatter {
	failedBy := make(map[string]filter.Criterion, len(rep))
	for _, e := range rep {
		failedBy[e.Genome] = e.Criterion
	}

	allowed := "None"
	if th, ok := state.Allowed[c]; ok {
		allowed = th.Format(c)
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title:    c.Title(),
			Subtitle: fmt.Sprintf("Allowed: %s  Tolerance: %s  Filtered: %d", allowed, tol.Format(c), rep.Count(c)),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Genome", Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: c.String()}),
	)

	var passed, failed, earlier []opts.ScatterData
	for _, r := range table.Records() {
		point := opts.ScatterData{Name: r.ID, Value: []interface{}{r.ID, metric(c, r)}}
		crit, isFailed := failedBy[r.ID]
		switch {
		case !isFailed || crit > c:
			passed = append(passed, point)
		case crit == c:
			failed = append(failed, point)
		default:
			earlier = append(earlier, point)
		}
	}

	scatter.SetXAxis(table.IDs()).
		AddSeries("passed", passed, charts.WithItemStyleOpts(opts.ItemStyle{Color: passedColor})).
		AddSeries("failed "+c.String(), failed, charts.WithItemStyleOpts(opts.ItemStyle{Color: Colors[c]})).
		AddSeries("failed earlier", earlier, charts.WithItemStyleOpts(opts.ItemStyle{Color: rejectedColor}))
	return scatter
}

// RenderChart writes an HTML page with one scatter chart per criterion.
func RenderChart(w io.Writer, table *stats.Table, state *filter.State, tol filter.Tolerances) error {
	rep, err := Build(state)
	if err != nil {
		return err
	}
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	for _, c := range filter.Criteria {
		page.AddCharts(createScatterChart(table, state, rep, tol, c))
	}
	return page.Render(w)
}
