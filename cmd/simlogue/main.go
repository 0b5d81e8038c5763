package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Myshaak-Jr/SimLogue/internal/version"
	"github.com/Myshaak-Jr/SimLogue/pkg/analysis"
	"github.com/Myshaak-Jr/SimLogue/pkg/circuit"
	"github.com/Myshaak-Jr/SimLogue/pkg/netlist"
	"github.com/Myshaak-Jr/SimLogue/pkg/scope"
	"github.com/Myshaak-Jr/SimLogue/pkg/util"
)

const (
	exitOK       = 0
	exitRuntime  = 1
	exitArgument = 2
)

func printHelp(out *os.File) {
	fmt.Fprintf(out, `SimLogue: An Analogue Circuit Simulator
Version: %d.%d.%d

Usage:
  simlogue [options] circuit_file duration

  circuit_file       .simlog file to load the circuit from
  duration           Time value (e.g. 20_ms) specifying the run time

Options:
  -t, --tables     <path>   Path to generated CSV tables
                            (default: ./tables/)
  -v, --version             Show version information
  -h, --help                Show this help message
  -r, --samplerate <freq>   Sets the samplerate in Hz
                            (default: 44100)
  -e, --export-tables       Exports the scope tables
  -g, --show-graphs         Renders the scope graphs after the run
`, version.Major, version.Minor, version.Patch)
}

func printVersion() {
	fmt.Printf("Version: %d.%d.%d\n", version.Major, version.Minor, version.Patch)
}

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("simlogue", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { printHelp(os.Stderr) }

	var (
		tablesPath   string
		samplerate   float64
		exportTables bool
		showGraphs   bool
		showVersion  bool
	)
	fs.StringVar(&tablesPath, "tables", "./tables/", "path to generated CSV tables")
	fs.StringVar(&tablesPath, "t", "./tables/", "path to generated CSV tables")
	fs.Float64Var(&samplerate, "samplerate", 44100, "samplerate in Hz")
	fs.Float64Var(&samplerate, "r", 44100, "samplerate in Hz")
	fs.BoolVar(&exportTables, "export-tables", false, "export the scope tables")
	fs.BoolVar(&exportTables, "e", false, "export the scope tables")
	fs.BoolVar(&showGraphs, "show-graphs", false, "render the scope graphs")
	fs.BoolVar(&showGraphs, "g", false, "render the scope graphs")
	fs.BoolVar(&showVersion, "version", false, "show version information")
	fs.BoolVar(&showVersion, "v", false, "show version information")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitArgument
	}
	if showVersion {
		printVersion()
		return exitOK
	}

	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "simlogue requires the circuit file path and the duration.\nSee help:")
		printHelp(os.Stderr)
		return exitArgument
	}
	circuitPath := fs.Arg(0)

	durationValue, err := netlist.ParseValue(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid duration: %v\n", err)
		return exitArgument
	}
	if durationValue.Quantity != netlist.Time {
		fmt.Fprintf(os.Stderr, "duration has to be a time value, got a %s value\n", durationValue.Quantity)
		return exitArgument
	}
	duration := durationValue.Value
	if duration <= 0 {
		fmt.Fprintln(os.Stderr, "duration must be positive")
		return exitArgument
	}
	if samplerate <= 0 {
		fmt.Fprintln(os.Stderr, "samplerate must be positive")
		return exitArgument
	}

	name := strings.TrimSuffix(filepath.Base(circuitPath), filepath.Ext(circuitPath))
	ckt, err := circuit.New(name, 1.0/samplerate)
	if err != nil {
		log.Printf("creating circuit: %v", err)
		return exitRuntime
	}

	f, err := os.Open(circuitPath)
	if err != nil {
		log.Printf("opening circuit file: %v", err)
		return exitRuntime
	}
	if err := netlist.New(ckt).Execute(f); err != nil {
		f.Close()
		log.Printf("loading circuit: %v", err)
		return exitRuntime
	}
	f.Close()

	tr := analysis.NewTransient(duration)
	if err := tr.Setup(ckt); err != nil {
		log.Printf("%v", err)
		return exitRuntime
	}

	fmt.Printf("Running %s for %s (%d steps)\n", name, util.FormatDuration(duration), tr.Steps())
	runErr := tr.Execute()
	if runErr != nil {
		// recorded scope data stays exportable
		log.Printf("%v", runErr)
	}

	if exportTables || showGraphs {
		if err := writeOutputs(ckt.Scopes(), tablesPath, exportTables, showGraphs); err != nil {
			log.Printf("%v", err)
			return exitRuntime
		}
	}

	if runErr != nil {
		return exitRuntime
	}
	return exitOK
}

func writeOutputs(scopes []*scope.Scope, tablesPath string, exportTables, showGraphs bool) error {
	outDir := filepath.Join(tablesPath, util.Timestamp())
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if exportTables {
		fmt.Println("Exporting tables...")
		for _, s := range scopes {
			if err := s.ExportCSV(outDir); err != nil {
				return err
			}
			if err := s.ExportPNG(outDir); err != nil {
				return err
			}
		}
	}

	if showGraphs {
		page, err := os.Create(filepath.Join(outDir, "scopes.html"))
		if err != nil {
			return fmt.Errorf("creating graph page: %w", err)
		}
		defer page.Close()
		if err := scope.RenderPage(page, scopes); err != nil {
			return fmt.Errorf("rendering graphs: %w", err)
		}
		fmt.Printf("Scope graphs written to %s\n", page.Name())
	}

	return nil
}
