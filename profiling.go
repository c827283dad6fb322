package main

import (
	"os"
	"runtime"
	"runtime/pprof"
	"sync"

	"github.com/rs/zerolog/log"
)

// startProfiles starts a CPU profile when cpuPath is set and arranges for a
// heap profile to be written to memPath on stop. The returned stop function
// is safe to call more than once.
func startProfiles(cpuPath, memPath string) (func(), error) {
	var cpu *os.File
	if cpuPath != "" {
		f, err := os.Create(cpuPath)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, err
		}
		cpu = f
	}
	var once sync.Once
	stop := func() {
		once.Do(func() {
			if cpu != nil {
				pprof.StopCPUProfile()
				_ = cpu.Close()
				log.Info().Str("path", cpuPath).Msg("cpu profile written")
			}
			if memPath != "" {
				writeHeapProfile(memPath)
			}
		})
	}
	return stop, nil
}

func writeHeapProfile(path string) {
	f, err := os.Create(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("heap profile")
		return
	}
	defer f.Close()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("heap profile")
		return
	}
	log.Info().Str("path", path).Msg("heap profile written")
}
