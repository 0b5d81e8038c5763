package scope

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// RenderPage renders every scope as a line chart into a single HTML page.
func RenderPage(w io.Writer, scopes []*Scope) error {
	page := components.NewPage()
	page.PageTitle = "SimLogue scopes"

	for _, s := range scopes {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{
				Theme: types.ThemeWesteros,
			}),
			charts.WithTitleOpts(opts.Title{
				Title:    s.Name(),
				Subtitle: fmt.Sprintf("%d samples [%s]", s.Len(), s.Unit()),
			}),
			charts.WithXAxisOpts(opts.XAxis{
				Name: "t [s]",
			}),
			charts.WithYAxisOpts(opts.YAxis{
				Scale: opts.Bool(true),
			}),
			charts.WithDataZoomOpts(opts.DataZoom{
				Type: "slider",
			}),
		)

		xAxis := make([]string, s.Len())
		data := make([]opts.LineData, s.Len())
		for i, t := range s.Times() {
			xAxis[i] = strconv.FormatFloat(t, 'g', 6, 64)
			data[i] = opts.LineData{Value: s.Values()[i]}
		}
		line.SetXAxis(xAxis).AddSeries(s.Name(), data)

		page.AddCharts(line)
	}

	return page.Render(w)
}
