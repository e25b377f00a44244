package charts

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pieChart draws proportional wedges with a category label outside each
// wedge and its percentage inside. It ignores the plot's data coordinates
// and fills the largest circle that fits the canvas.
type pieChart struct {
	values []float64
	labels []string
}

var _ plot.Plotter = (*pieChart)(nil)

func newPieChart(values []float64, labels []string) (*pieChart, error) {
	if len(values) != len(labels) {
		return nil, fmt.Errorf("pie: %d values for %d labels", len(values), len(labels))
	}
	var total float64
	for _, v := range values {
		if v < 0 {
			return nil, fmt.Errorf("pie: negative value %v", v)
		}
		total += v
	}
	if total == 0 {
		return nil, fmt.Errorf("pie: values sum to zero")
	}
	return &pieChart{values: values, labels: labels}, nil
}

// Plot implements plot.Plotter
func (p *pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	var total float64
	for _, v := range p.values {
		total += v
	}

	center := c.Center()
	radius := vg.Length(math.Min(float64(c.Max.X-c.Min.X), float64(c.Max.Y-c.Min.Y))) / 2 * 0.75

	labelStyle := plt.X.Tick.Label
	labelStyle.XAlign = draw.XCenter
	labelStyle.YAlign = draw.YCenter

	// wedges run counterclockwise starting at 12 o'clock
	start := math.Pi / 2
	for i, v := range p.values {
		if v == 0 {
			continue
		}
		sweep := v / total * 2 * math.Pi

		var wedge vg.Path
		wedge.Move(center)
		wedge.Arc(center, radius, start, sweep)
		wedge.Close()

		c.SetColor(plotutil.Color(i))
		c.Fill(wedge)
		c.SetColor(color.White)
		c.SetLineWidth(vg.Points(1))
		c.Stroke(wedge)

		mid := start + sweep/2
		c.FillText(labelStyle, polar(center, radius*0.6, mid), fmt.Sprintf("%.1f%%", v/total*100))
		c.FillText(labelStyle, polar(center, radius*1.15, mid), p.labels[i])

		start += sweep
	}
}

// DataRange implements plot.DataRanger with a fixed unit box
func (p *pieChart) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1, 1, -1, 1
}

func polar(center vg.Point, r vg.Length, angle float64) vg.Point {
	return vg.Point{
		X: center.X + r*vg.Length(math.Cos(angle)),
		Y: center.Y + r*vg.Length(math.Sin(angle)),
	}
}
