package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"eoscalc/eos"
	"eoscalc/quantity"
)

// run executes one computation mode and writes its results into the
// output directory.
func run(
	mode string,
	parameterPath string,
	binaryPath string,
	substances []string,
	temperature float64,
	pressure float64,
	composition []float64,
	npoints int,
	outputDir string,
	plotSaved bool,
	verbose bool,
) {
	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		os.Mkdir(outputDir, 0755)
	}
	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		log.Fatalf("`%s` is not a directory", outputDir)
	}

	log.Printf("loading parameter records for %v from %s", substances, parameterPath)
	pure, err := eos.LoadPureRecords(parameterPath, substances)
	if err != nil {
		log.Fatal(err)
	}
	var kij [][]float64
	if binaryPath != "" {
		binary, err := eos.LoadBinaryRecords(binaryPath)
		if err != nil {
			log.Fatal(err)
		}
		kij = eos.BinaryMatrix(pure, binary)
	}
	params, err := eos.NewPengRobinsonParameters(pure, kij)
	if err != nil {
		log.Fatal(err)
	}
	e := eos.NewPengRobinson(params)
	opts := eos.SolverOptions{Verbose: verbose}

	switch mode {
	case "pure":
		if len(substances) != 1 {
			log.Fatal("mode pure requires exactly one substance")
		}
		log.Printf("computing the vapor pressure curve of %s", substances[0])
		diagram, err := eos.NewPhaseDiagramPure(e, quantity.New(temperature, quantity.Kelvin), npoints, opts)
		if err != nil {
			log.Fatal(err)
		}
		rows := diagram.Rows()
		writeCSV(outputDir, "saturation.csv", &rows)
		if plotSaved {
			plotPureDiagram(diagram, outputDir, substances[0])
		}

	case "pxy", "txy":
		if len(substances) != 2 {
			log.Fatalf("mode %s requires exactly two substances", mode)
		}
		var spec eos.TPSpec
		if mode == "pxy" {
			spec = eos.AtTemperature(quantity.New(temperature, quantity.Kelvin))
			log.Printf("computing the isothermal diagram of %s/%s at %g K", substances[0], substances[1], temperature)
		} else {
			spec = eos.AtPressure(quantity.New(pressure, quantity.Pascal))
			log.Printf("computing the isobaric diagram of %s/%s at %g Pa", substances[0], substances[1], pressure)
		}
		diagram, err := eos.NewPhaseDiagramBinary(e, spec, npoints, opts)
		if err != nil {
			log.Fatal(err)
		}
		rows := diagram.Rows()
		writeCSV(outputDir, mode+".csv", &rows)
		if plotSaved {
			plotBinaryDiagram(diagram, outputDir, mode)
		}

	case "flash":
		if len(composition) != len(substances) {
			log.Fatal("mode flash requires a feed composition per substance")
		}
		log.Printf("flashing %v at %g K, %g Pa", composition, temperature, pressure)
		split, err := eos.TPFlash(e,
			quantity.New(temperature, quantity.Kelvin),
			quantity.New(pressure, quantity.Pascal),
			composition, opts)
		if err != nil {
			log.Fatal(err)
		}
		reportFlash(split, substances)

	case "critical":
		moles := composition
		if len(moles) == 0 {
			moles = equimolar(len(substances))
		}
		log.Printf("computing the critical point of %v", substances)
		cp, err := eos.CriticalPoint(e, moles, quantity.Scalar{}, opts)
		if err != nil {
			log.Fatal(err)
		}
		p, err := cp.Pressure(eos.Total)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("critical temperature: %10.4f K\n", cp.Temperature().MustIn(quantity.Kelvin))
		fmt.Printf("critical pressure:    %10.4f MPa\n", p.MustIn(quantity.MegaPascal))
		fmt.Printf("critical density:     %10.4f mol/m3\n", cp.Density().MustIn(quantity.MolPerCubicMeter))

	default:
		log.Fatalf("unknown mode %q", mode)
	}
}

func reportFlash(split *eos.PhaseEquilibrium, substances []string) {
	fmt.Printf("vapor fraction: %8.5f\n", split.VaporFraction())
	vap, liq := split.Vapor(), split.Liquid()
	fmt.Printf("%-12s %10s %10s\n", "substance", "x liquid", "y vapor")
	for i, name := range substances {
		fmt.Printf("%-12s %10.5f %10.5f\n", name, liq.MoleFracs()[i], vap.MoleFracs()[i])
	}
	rhoL := liq.Density().MustIn(quantity.MolPerCubicMeter)
	rhoV := vap.Density().MustIn(quantity.MolPerCubicMeter)
	fmt.Printf("molar density liquid: %12.4f mol/m3\n", rhoL)
	fmt.Printf("molar density vapor:  %12.4f mol/m3\n", rhoV)
}

func writeCSV(dir, name string, rows interface{}) {
	path := dir + string(os.PathSeparator) + name
	file, err := os.Create(path)
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()
	if err := gocsv.MarshalFile(rows, file); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s", path)
}

func equimolar(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}
	return x
}

func parseComposition(s string) []float64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	x := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			log.Fatalf("invalid composition entry %q", p)
		}
		x[i] = v
	}
	return x
}

func main() {
	var mode string
	flag.StringVar(&mode, "mode", "pure", "computation mode: pure, pxy, txy, flash or critical")

	var parameterPath string
	flag.StringVar(&parameterPath, "parameters", "data/peng_robinson.json", "path to the substance parameter JSON file")

	var binaryPath string
	flag.StringVar(&binaryPath, "binary", "", "path to the binary interaction parameter JSON file")

	var substanceList string
	flag.StringVar(&substanceList, "substances", "", "comma separated substance names, resolved against the parameter file")

	var temperature float64
	flag.Float64Var(&temperature, "t", 300, "temperature in K (minimum temperature for mode pure)")

	var pressure float64
	flag.Float64Var(&pressure, "p", 1e5, "pressure in Pa")

	var composition string
	flag.StringVar(&composition, "z", "", "comma separated feed composition for the flash and critical modes")

	var npoints int
	flag.IntVar(&npoints, "n", 101, "number of diagram points")

	var outputDir string
	flag.StringVar(&outputDir, "o", ".", "output directory")

	var plotSaved bool
	flag.BoolVar(&plotSaved, "plot", false, "write a PNG plot next to the CSV output")

	var verbose bool
	flag.BoolVar(&verbose, "v", false, "log solver iterations")

	flag.Parse()

	if substanceList == "" {
		log.Fatal("no substances given")
	}
	substances := strings.Split(substanceList, ",")
	for i := range substances {
		substances[i] = strings.TrimSpace(substances[i])
	}

	run(mode, parameterPath, binaryPath, substances, temperature, pressure,
		parseComposition(composition), npoints, outputDir, plotSaved, verbose)
}
