// Package report draws the per-(group,label) distribution of a dataset.
package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/Noofbiz/fairdata/datasets"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var palette = []color.RGBA{
	{R: 20, G: 80, B: 200, A: 255},
	{R: 200, G: 30, B: 30, A: 255},
	{R: 40, G: 150, B: 40, A: 255},
	{R: 230, G: 150, B: 20, A: 255},
	{R: 120, G: 120, B: 120, A: 255},
}

// GroupNames returns "g0".."g{n-1}" unless names has one entry per group.
func GroupNames(n int, names []string) []string {
	if len(names) == n {
		return names
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("g%d", i)
	}
	return out
}

// PlotCounts writes a grouped bar chart of c.NumData to outPath: one cluster
// per group, one bar per label.
func PlotCounts(c datasets.Counts, groupNames []string, title, outPath string) error {
	if c.NumGroups == 0 || c.NumClasses == 0 {
		return fmt.Errorf("nothing to plot: %d groups, %d classes", c.NumGroups, c.NumClasses)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "group"
	p.Y.Label.Text = "count"

	width := vg.Points(40 / float64(c.NumClasses))
	for l := range c.NumClasses {
		values := make(plotter.Values, c.NumGroups)
		for g := range c.NumGroups {
			values[g] = float64(c.NumData[g][l])
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return err
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = palette[l%len(palette)]
		bars.Offset = width * vg.Length(float64(l)-float64(c.NumClasses-1)/2)
		p.Add(bars)
		p.Legend.Add(fmt.Sprintf("label %d", l), bars)
	}
	p.Legend.Top = true
	p.NominalX(GroupNames(c.NumGroups, groupNames)...)

	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, outPath)
}
