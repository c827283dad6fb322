package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"OSR/internal/diag"
	"OSR/internal/gfx"
	"OSR/internal/ocean"
)

func main() {
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	s, err := loadSettings(*configFlag)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configFlag).Msg("config load failed")
	}
	zerolog.SetGlobalLevel(s.logLevel)

	stopProfiles, err := startProfiles(*cpuProfileFlag, *memProfileFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("starting profiles")
	}
	defer stopProfiles()

	if err := run(s); err != nil {
		stopProfiles()
		log.Fatal().Err(err).Msg("ocean viewer failed")
	}
}

func run(s settings) error {
	dev, err := openDevice(s.backend, s.workers, log.Logger)
	if err != nil {
		return err
	}
	defer dev.Close()

	geom, err := ocean.NewGeometry(dev, gfx.NewContext(textureUnits), s.ocean,
		ocean.WithKernelDir(s.kernelDir),
		ocean.WithLogger(log.Logger.With().Str("component", "ocean").Logger()))
	if err != nil {
		return err
	}
	defer geom.Close()

	var hub *diag.Hub
	if s.diagAddr != "" {
		hub = diag.NewHub(dev.Name(), log.Logger)
		srv := &http.Server{
			Addr:         s.diagAddr,
			Handler:      hub.Handler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", s.diagAddr).Msg("diagnostics server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("diagnostics server stopped")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	if s.headlessFrames > 0 {
		_, err := runHeadless(geom, s.headlessFrames, s.timeScale, hub, log.Logger)
		return err
	}

	ebiten.SetWindowSize(2*previewSize*windowScale, previewSize*windowScale)
	ebiten.SetWindowTitle("Ocean Surface (" + dev.Name() + ")")
	ebiten.SetTPS(int(defaultTPS))
	return ebiten.RunGame(newGame(geom, hub, s.timeScale))
}
