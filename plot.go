package main

import (
	"image/color"
	"log"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"eoscalc/eos"
)

// plotPureDiagram draws the vapor pressure curve on a log scale.
func plotPureDiagram(d *eos.PhaseDiagramPure, dir, substance string) {
	rows := d.Rows()
	pts := make(plotter.XYs, len(rows))
	for i, r := range rows {
		pts[i].X = r.Temperature
		pts[i].Y = r.Pressure / 1e6
	}

	p := plot.New()
	p.Title.Text = substance
	p.X.Label.Text = "temperature / K"
	p.Y.Label.Text = "vapor pressure / MPa"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	line, err := plotter.NewLine(pts)
	if err != nil {
		log.Fatal(err)
	}
	line.Color = color.RGBA{B: 180, A: 255}
	p.Add(line)

	savePlot(p, dir, "saturation.png")
}

// plotBinaryDiagram draws the bubble and dew curves over the mole
// fraction of the first component.
func plotBinaryDiagram(d *eos.PhaseDiagramBinary, dir, mode string) {
	rows := d.Rows()
	bubble := make(plotter.XYs, len(rows))
	dew := make(plotter.XYs, len(rows))
	for i, r := range rows {
		y := r.Pressure / 1e6
		if mode == "txy" {
			y = r.Temperature
		}
		bubble[i].X = r.LiquidX1
		bubble[i].Y = y
		dew[i].X = r.VaporY1
		dew[i].Y = y
	}

	p := plot.New()
	p.X.Label.Text = "mole fraction component 1"
	if mode == "txy" {
		p.Y.Label.Text = "temperature / K"
	} else {
		p.Y.Label.Text = "pressure / MPa"
	}
	p.X.Min, p.X.Max = 0, 1

	bl, err := plotter.NewLine(bubble)
	if err != nil {
		log.Fatal(err)
	}
	bl.Color = color.RGBA{B: 180, A: 255}
	dl, err := plotter.NewLine(dew)
	if err != nil {
		log.Fatal(err)
	}
	dl.Color = color.RGBA{R: 180, A: 255}
	p.Add(bl, dl)
	p.Legend.Add("bubble", bl)
	p.Legend.Add("dew", dl)

	savePlot(p, dir, mode+".png")
}

func savePlot(p *plot.Plot, dir, name string) {
	path := dir + string(os.PathSeparator) + name
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s", path)
}
