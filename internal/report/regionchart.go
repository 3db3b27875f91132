package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/paulmach/orb/geojson"

	"github.com/wetwoodland/webmap/internal/colorramp"
	"github.com/wetwoodland/webmap/internal/regions"
)

var gradeSeries = [3]struct {
	label string
	stop  int
}{
	{"Grade 1-2", 5},
	{"Grade 3", 3},
	{"Grade 4-5", 1},
}

// RegionName picks a display label for a region feature.
func RegionName(f *geojson.Feature, i int) string {
	for _, key := range []string{"name", "NAME", "LNRS_NAME"} {
		if s, ok := f.Properties[key].(string); ok && s != "" {
			return s
		}
	}
	if n, ok := regions.LNRSNumber(f.Properties[regions.IDProperty]); ok {
		return fmt.Sprintf("LNRS %d", n)
	}
	return fmt.Sprintf("region %d", i+1)
}

func hexColor(i int) string {
	c := colorramp.Stops[i]
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RegionChart renders an HTML stacked bar chart of suitable hectares per
// grade bucket for every region carrying grade statistics.
func RegionChart(w io.Writer, fc *geojson.FeatureCollection) error {
	var names []string
	var series [3][]opts.BarData
	for i, f := range fc.Features {
		if _, ok := f.Properties[regions.PropGrade12]; !ok {
			continue
		}
		names = append(names, RegionName(f, i))
		for k, prop := range regions.GradeProps {
			series[k] = append(series[k], opts.BarData{Value: f.Properties.MustFloat64(prop, 0)})
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("no regions with grade statistics")
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Suitable area by land grade", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Restoration suitability by land grade", Subtitle: fmt.Sprintf("regions=%d", len(names))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ha"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: 45}}),
	)
	bar.SetXAxis(names)
	for k, s := range gradeSeries {
		bar.AddSeries(s.label, series[k],
			charts.WithBarChartOpts(opts.BarChart{Stack: "grade"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(s.stop)}),
		)
	}
	return bar.Render(w)
}
