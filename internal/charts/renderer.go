package charts

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"wazecli/internal/config"
	apperrors "wazecli/internal/errors"
	"wazecli/internal/infrastructure"
	"wazecli/internal/report"
	"wazecli/internal/results"
)

// DefaultDPI is the resolution of the written PNGs
const DefaultDPI = 150

var peakColor = color.RGBA{R: 220, G: 30, B: 30, A: 255}

// Renderer writes the reporter's PNG charts
type Renderer struct {
	logger  *slog.Logger
	metrics *infrastructure.RunMetrics
	dpi     int
}

// NewRenderer creates a chart renderer. metrics may be nil.
func NewRenderer(logger *slog.Logger, metrics *infrastructure.RunMetrics) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		logger:  infrastructure.WithComponent(logger, "charts"),
		metrics: metrics,
		dpi:     DefaultDPI,
	}
}

// RenderAll draws every chart whose input is present and returns the written paths.
// A chart that fails is logged and skipped; the others are still attempted.
func (r *Renderer) RenderAll(ctx context.Context, rs *results.ResultSet, paths *config.ReportPaths) []string {
	jobs := []struct {
		name   string
		result string
		path   string
		render func(string) error
	}{
		{"incident_types", config.ResultTypeStats, paths.TypesChart, func(p string) error { return r.TypesChart(p, rs.TypeStats) }},
		{"top_comunas", config.ResultTopComunas, paths.ComunasChart, func(p string) error {
			return r.ComunasChart(p, report.TopComunas(rs.TopComunas, report.ChartComunaLimit))
		}},
		{"hourly", config.ResultHourlyStats, paths.HourlyChart, func(p string) error { return r.HourlyChart(p, rs.HourlyStats) }},
	}

	var written []string
	for _, job := range jobs {
		if !rs.Has(job.result) {
			continue
		}
		if err := job.render(job.path); err != nil {
			r.logger.WarnContext(ctx, "Skipping chart",
				slog.String("chart", job.name),
				slog.String("error", err.Error()))
			continue
		}
		r.logger.InfoContext(ctx, "Chart saved", slog.String("chart", job.name), slog.String("path", job.path))
		if r.metrics != nil {
			r.metrics.ArtifactsWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("artifact", "chart")))
		}
		written = append(written, job.path)
	}
	return written
}

// TypesChart draws a horizontal bar chart of every type, sorted ascending by
// total_count, next to a pie of the same proportions.
func (r *Renderer) TypesChart(path string, rows []results.TypeStat) error {
	if len(rows) == 0 {
		return apperrors.NewRenderError("no incident types to plot", nil)
	}
	return guard(func() error {
		sorted := make([]results.TypeStat, len(rows))
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TotalCount < sorted[j].TotalCount })

		names := make([]string, len(sorted))
		values := make(plotter.Values, len(sorted))
		for i, t := range sorted {
			names[i] = t.IncidentType
			values[i] = float64(t.TotalCount)
		}

		bars := plot.New()
		bars.Title.Text = "Incident Type Distribution"
		bars.X.Label.Text = "Number of Incidents"
		bars.X.Min = 0
		barChart, err := plotter.NewBarChart(values, vg.Points(14))
		if err != nil {
			return err
		}
		barChart.Horizontal = true
		barChart.LineStyle.Width = 0
		barChart.Color = color.RGBA{R: 66, G: 133, B: 244, A: 255}
		bars.Add(barChart)
		bars.NominalY(names...)

		pie := plot.New()
		pie.Title.Text = "Incident Type Proportion"
		pie.HideAxes()
		wedges, err := newPieChart(values, names)
		if err != nil {
			return err
		}
		pie.Add(wedges)

		return r.savePNG(path, 12*vg.Inch, 6*vg.Inch, func(dc draw.Canvas) {
			tiles := draw.Tiles{Rows: 1, Cols: 2, PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 2,
				PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2, PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2}
			canvases := plot.Align([][]*plot.Plot{{bars, pie}}, tiles, dc)
			bars.Draw(canvases[0][0])
			pie.Draw(canvases[0][1])
		})
	})
}

// ComunasChart draws horizontal bars with the first row at the top and the
// count printed beside each bar.
func (r *Renderer) ComunasChart(path string, rows []results.ComunaStat) error {
	if len(rows) == 0 {
		return apperrors.NewRenderError("no comunas to plot", nil)
	}
	return guard(func() error {
		n := len(rows)
		names := make([]string, n)
		values := make(plotter.Values, n)
		labels := plotter.XYLabels{XYs: make(plotter.XYs, n), Labels: make([]string, n)}

		var maxValue float64
		for _, c := range rows {
			maxValue = max(maxValue, float64(c.TotalIncidents))
		}

		// y grows upwards so the first row gets the highest position
		for i, c := range rows {
			y := n - 1 - i
			names[y] = c.Comuna
			values[y] = float64(c.TotalIncidents)
			labels.XYs[y] = plotter.XY{X: float64(c.TotalIncidents) + maxValue*0.01, Y: float64(y)}
			labels.Labels[y] = fmt.Sprintf("%d", c.TotalIncidents)
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("Top %d Comunas with the Most Incidents", report.ChartComunaLimit)
		p.X.Label.Text = "Number of Incidents"
		p.X.Min = 0
		p.X.Max = maxValue * 1.12
		if maxValue == 0 {
			p.X.Max = 1
		}

		barChart, err := plotter.NewBarChart(values, vg.Points(16))
		if err != nil {
			return err
		}
		barChart.Horizontal = true
		barChart.LineStyle.Width = 0
		barChart.Color = color.RGBA{R: 52, G: 168, B: 83, A: 255}
		p.Add(barChart)
		p.NominalY(names...)

		valueLabels, err := plotter.NewLabels(labels)
		if err != nil {
			return err
		}
		for i := range valueLabels.TextStyle {
			valueLabels.TextStyle[i].YAlign = draw.YCenter
		}
		p.Add(valueLabels)

		return r.savePNG(path, 14*vg.Inch, 8*vg.Inch, p.Draw)
	})
}

// HourlyChart draws incidents per hour with a dashed marker at the peak hour
func (r *Renderer) HourlyChart(path string, rows []results.HourlyStat) error {
	peak, ok := report.PeakHour(rows)
	if !ok {
		return apperrors.NewRenderError("no hourly data to plot", nil)
	}
	return guard(func() error {
		sorted := make([]results.HourlyStat, len(rows))
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Hour < sorted[j].Hour })

		xys := make(plotter.XYs, len(sorted))
		var maxCount float64
		for i, h := range sorted {
			xys[i] = plotter.XY{X: float64(h.Hour), Y: float64(h.IncidentsCount)}
			maxCount = max(maxCount, float64(h.IncidentsCount))
		}

		p := plot.New()
		p.Title.Text = "Incidents by Hour of Day"
		p.X.Label.Text = "Hour of Day"
		p.Y.Label.Text = "Number of Incidents"
		p.X.Tick.Marker = hourTicks{}
		p.Y.Min = 0
		p.Y.Max = maxCount * 1.05
		if maxCount == 0 {
			p.Y.Max = 1
		}

		grid := plotter.NewGrid()
		grid.Vertical.Color = color.Gray{Y: 210}
		grid.Horizontal.Color = color.Gray{Y: 210}
		p.Add(grid)

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return err
		}
		line.Width = vg.Points(2)
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		points.GlyphStyle.Radius = vg.Points(3)
		p.Add(line, points)

		marker, err := plotter.NewLine(plotter.XYs{
			{X: float64(peak.Hour), Y: p.Y.Min},
			{X: float64(peak.Hour), Y: p.Y.Max},
		})
		if err != nil {
			return err
		}
		marker.Color = peakColor
		marker.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		p.Add(marker)
		p.Legend.Add(fmt.Sprintf("Peak hour: %d:00", peak.Hour), marker)
		p.Legend.Top = true

		return r.savePNG(path, 12*vg.Inch, 6*vg.Inch, p.Draw)
	})
}

// hourTicks labels every second hour of the day
type hourTicks struct{}

func (hourTicks) Ticks(_, _ float64) []plot.Tick {
	var ticks []plot.Tick
	for h := 0; h < 24; h += 2 {
		ticks = append(ticks, plot.Tick{Value: float64(h), Label: fmt.Sprintf("%d", h)})
	}
	for h := 1; h < 24; h += 2 {
		ticks = append(ticks, plot.Tick{Value: float64(h)})
	}
	return ticks
}

func (r *Renderer) savePNG(path string, w, h vg.Length, drawFn func(draw.Canvas)) error {
	img := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(r.dpi))
	drawFn(draw.New(img))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create chart directory", err).WithContext("path", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create chart file", err).WithContext("path", path)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return apperrors.NewRenderError("failed to encode PNG", err).WithContext("path", path)
	}
	if err := f.Close(); err != nil {
		return apperrors.NewStorageError("failed to close chart file", err).WithContext("path", path)
	}
	return nil
}

// guard turns panics from the plotting library into render errors
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = apperrors.NewRenderError(fmt.Sprintf("chart rendering panicked: %v", rec), nil)
		}
	}()
	if err := fn(); err != nil {
		if _, ok := err.(*apperrors.AppError); ok {
			return err
		}
		return apperrors.NewRenderError("chart rendering failed", err)
	}
	return nil
}
