// Command pointsto reports nil dereferences in the given packages.
//
// Usage:
//
//	pointsto [flags] packages...
//
// Findings are printed as file:line:column: message. The exit status is 3
// when there are findings.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/BarrensZeppelin/pointsto/internal/config"
	"github.com/BarrensZeppelin/pointsto/pkgutil"
	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/packages"
)

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var dir = flag.String("dir", "", "alternative directory to run the go build tool in")
var tests = flag.Bool("tests", false, "include test packages")
var configFile = flag.String("config", "", "read analysis settings from YAML `file`")
var debug = flag.Bool("debug", false, "log analysis progress")
var jobs = flag.Int("j", runtime.GOMAXPROCS(0), "number of functions analysed concurrently")

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	if flag.NArg() == 0 {
		log.Fatal("Specify a package query on the command line")
	}
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			log.Fatalf("Reading configuration failed: %v", err)
		}
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Fatal("Failed to close", f)
			}
		}()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	pkgs, err := pkgutil.LoadPackagesWithConfig(&packages.Config{
		Mode:  pkgutil.LoadMode,
		Tests: *tests,
		Dir:   *dir,
	}, flag.Args()...)
	if err != nil {
		log.Fatalf("Loading packages failed: %v", err)
	}

	log.Infof("Loaded %d packages", len(pkgs))

	prog, spkgs := pkgutil.BuildSSA(pkgs)
	fns := pkgutil.SourceFunctions(prog, spkgs)

	log.Infof("Built packages, %d functions", len(fns))

	findings, err := analyze(context.Background(), fns, cfg.Analysis())
	if err != nil {
		log.Fatal(err)
	}
	for _, fd := range findings {
		fmt.Printf("%s: %s\n", prog.Fset.Position(fd.Pos), fd.Message)
	}

	log.Infof("%d findings", len(findings))
	if len(findings) > 0 {
		return 3
	}
	return 0
}
