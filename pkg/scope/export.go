package scope

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ExportCSV writes the recorded series as <dir>/<name>.csv with a header
// row; the first column is the time in seconds.
func (s *Scope) ExportCSV(dir string) error {
	f, err := os.Create(filepath.Join(dir, s.name+".csv"))
	if err != nil {
		return fmt.Errorf("creating table for %s: %w", s.name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"t", s.Unit()}); err != nil {
		return fmt.Errorf("writing table header for %s: %w", s.name, err)
	}
	for i, t := range s.times {
		record := []string{
			strconv.FormatFloat(t, 'g', -1, 64),
			strconv.FormatFloat(s.values[i], 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing table row for %s: %w", s.name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing table for %s: %w", s.name, err)
	}
	return nil
}

// ExportPNG renders the recorded series as <dir>/<name>.png.
func (s *Scope) ExportPNG(dir string) error {
	p := plot.New()
	p.Title.Text = s.name
	p.X.Label.Text = "t [s]"
	p.Y.Label.Text = s.Unit()
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(s.times))
	for i := range s.times {
		pts[i].X = s.times[i]
		pts[i].Y = s.values[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plotting %s: %w", s.name, err)
	}
	p.Add(line)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, filepath.Join(dir, s.name+".png")); err != nil {
		return fmt.Errorf("saving graph for %s: %w", s.name, err)
	}
	return nil
}
