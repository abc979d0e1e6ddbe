package telemetry

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderRewards writes a line chart of per-episode rewards to path. The
// image format follows the file extension.
func RenderRewards(path string, frame int64, rewards []float64) error {
	if len(rewards) == 0 {
		return nil
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("frame %d. reward: %g", frame, rewards[len(rewards)-1])
	p.X.Label.Text = "episode"
	p.Y.Label.Text = "reward"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(rewards))
	for i, r := range rewards {
		pts[i].X = float64(i + 1)
		pts[i].Y = r
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build reward line: %w", err)
	}
	p.Add(line)

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save reward plot: %w", err)
	}
	return nil
}
