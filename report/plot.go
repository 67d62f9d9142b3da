package report

import (
	"fmt"
	"github.com/cespare/xxhash"
	"github.com/dasnellings/diphic/access"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Chart draws the raw and corrected reference fraction of each chromosome,
// in summary order, as a terminal chart. Chromosomes without signal are drawn
// at 0.5.
func Chart(s Summary) string {
	if len(s.Chroms) == 0 {
		return ""
	}
	raw := make([]float64, len(s.Chroms))
	corrected := make([]float64, len(s.Chroms))
	for i, c := range s.Chroms {
		raw[i] = orHalf(RefFraction(c.RawRef, c.RawAlt))
		corrected[i] = orHalf(RefFraction(c.CorrRef, c.CorrAlt))
	}
	return asciigraph.PlotMany([][]float64{raw, corrected},
		asciigraph.Height(10),
		asciigraph.Precision(2),
		asciigraph.Caption("reference fraction per chromosome (raw, corrected)"),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue))
}

func orHalf(f float64) float64 {
	if math.IsNaN(f) {
		return 0.5
	}
	return f
}

// PlotJunctionBias saves a bar chart of classified alignments per junction
// type and homolog. The format follows the extension of path.
func PlotJunctionBias(path string, counts map[int]access.JunctionCount) error {
	types := JunctionTypes(counts)
	if len(types) == 0 {
		return fmt.Errorf("no junction counts to plot")
	}
	ref := make(plotter.Values, len(types))
	alt := make(plotter.Values, len(types))
	labels := make([]string, len(types))
	for i, jt := range types {
		ref[i] = float64(counts[jt].Reference)
		alt[i] = float64(counts[jt].Alternate)
		labels[i] = fmt.Sprint(jt)
	}

	width := vg.Points(12)
	refBars, err := plotter.NewBarChart(ref, width)
	if err != nil {
		return err
	}
	refBars.Color = color.RGBA{R: 200, G: 60, B: 60, A: 255}
	refBars.Offset = -width / 2
	altBars, err := plotter.NewBarChart(alt, width)
	if err != nil {
		return err
	}
	altBars.Color = color.RGBA{R: 60, G: 60, B: 200, A: 255}
	altBars.Offset = width / 2

	pl := plot.New()
	pl.Title.Text = "Classified alignments per junction type"
	pl.X.Label.Text = "Junction type"
	pl.Y.Label.Text = "Alignments"
	pl.Add(refBars, altBars)
	pl.Legend.Add("reference-phase", refBars)
	pl.Legend.Add("alternate-phase", altBars)
	pl.Legend.Top = true
	pl.NominalX(labels...)
	return pl.Save(15*vg.Centimeter, 10*vg.Centimeter, path)
}

// FileDigest returns the xxhash of the contents of path, named by its base name.
func FileDigest(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err = io.Copy(h, f); err != nil {
		return Digest{}, err
	}
	return Digest{File: filepath.Base(path), Sum: h.Sum64()}, nil
}
