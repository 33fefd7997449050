// Command chessplay-uci runs the NNUEU search core as a UCI engine,
// reading commands from stdin and writing responses to stdout.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/hailam/nnueuchess/internal/engine"
	"github.com/hailam/nnueuchess/internal/uci"
)

// defaultNNUEDirName is the directory name auto-load checks in each
// candidate search path, holding the CSV weight files of §6.2.
const defaultNNUEDirName = "nnueu"

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	hashMB     = flag.Int("hash", 16, "transposition table size in MB")
	threads    = flag.Int("threads", 1, "search thread count")
	nnueDir    = flag.String("nnue", "", "path to the NNUEU weight directory (see EvalFile)")
)

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	eng := engine.NewEngine(*hashMB, *threads)
	defer func() {
		if err := eng.Close(); err != nil {
			log.Printf("warning: %v", err)
		}
	}()

	if err := loadNetwork(eng, *nnueDir); err != nil {
		log.Printf("warning: NNUEU weights not loaded: %v", err)
	}

	protocol := uci.New(eng)
	protocol.Run()
}

// loadNetwork loads the NNUEU weight directory named explicitly by
// -nnue, or otherwise the first of a handful of conventional
// locations that actually exists.
func loadNetwork(eng *engine.Engine, explicit string) error {
	if explicit != "" {
		return eng.LoadNetwork(explicit)
	}

	for _, dir := range candidateNNUEDirs() {
		if dirExists(dir) {
			if err := eng.LoadNetwork(dir); err != nil {
				log.Printf("failed to load NNUEU weights from %s: %v", dir, err)
				continue
			}
			log.Printf("NNUEU weights loaded from %s", dir)
			return nil
		}
	}
	return os.ErrNotExist
}

func candidateNNUEDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return []string{
		filepath.Join(".", defaultNNUEDirName),
		filepath.Join(home, ".nnueuchess", defaultNNUEDirName),
		defaultNNUEDirName,
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
