// @license
// Copyright (C) 2025  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/dkorunic/plato-bot/config"
	"github.com/dkorunic/plato-bot/logger"
	"github.com/dkorunic/plato-bot/version"
	"github.com/dustin/go-humanize"
	sysdnotify "github.com/iguanesolutions/go-systemd/v5/notify"
	sysdwatchdog "github.com/iguanesolutions/go-systemd/v5/notify/watchdog"
)

const maxMemRatio = 0.9

var (
	exitWithError atomic.Bool
	GitTag        = ""
	GitCommit     = ""
	GitDirty      = ""
	BuildTime     = ""
)

// fatalIfErrors checks if any errors were encountered during runtime and exits with an exit code of 1 if so.
func fatalIfErrors() {
	if exitWithError.Load() {
		logger.Fatal().Msg("Exiting, during run some errors were encountered.")
	}

	logger.Debug().Msg("Exiting with a success.")
}

// main is the entry point of the application.
//
// It parses flags, sets the global log level, configures GOMEMLIMIT, sets up a context with signal integration,
// loads the TOML config and runs the selected front end until it finishes or a stop signal arrives.
func main() {
	parseFlags()

	initLog()

	logger.Info().Msgf("plato-bot %v %v%v, built on %v, with %v", GitTag, GitCommit, GitDirty,
		BuildTime, runtime.Version())
	logger.Debug().Msgf("Using %v", version.Deps("github.com/PuerkitoBio/goquery",
		"github.com/bwmarrin/discordgo", "github.com/gin-gonic/gin"))

	// configure GOMEMLIMIT to 90% of available memory (Cgroups v2/v1 or system)
	limit, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(maxMemRatio),
		memlimit.WithProvider(
			memlimit.ApplyFallback(
				memlimit.FromCgroup,
				memlimit.FromSystem,
			),
		),
	)

	if err != nil {
		logger.Debug().Msgf("Unable to get/set GOMEMLIMIT: %v", err)
	} else {
		logger.Debug().Msgf("GOMEMLIMIT is set to: %v", humanize.Bytes(uint64(limit))) //nolint:gosec
	}

	logger.Debug().Msgf("GOMAXPROCS limit is set to: %v", runtime.GOMAXPROCS(0))

	// context with signal integration
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig(*confFile)

	if *listen != "" {
		cfg.HTTP.Listen = *listen
		config.Check(&cfg)
	}

	// enable CPU profiling dump on exit
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			logger.Fatal().Msgf("Error creating CPU profile: %v", err)
		}
		defer f.Close()

		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatal().Msgf("Error starting CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	// enable memory profile dump on exit
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			logger.Fatal().Msgf("Error trying to create memory profile: %v", err)
		}
		defer f.Close()

		defer func() {
			runtime.GC()

			if err := pprof.WriteHeapProfile(f); err != nil {
				logger.Fatal().Msgf("Error writing memory profile: %v", err)
			}
		}()
	}

	switch *mode {
	case modeDiscord, modeHTTP:
		err = runService(ctx, cfg)
	default:
		err = runCLI(ctx, cfg)
	}

	if err != nil {
		logger.Error().Msgf("%v", err)
		exitWithError.Store(true)
	}

	fatalIfErrors()
}

// loadConfig loads TOML configuration, falling back to built-in defaults when the default configuration file does
// not exist.
func loadConfig(file string) config.TomlConfig {
	cfg, err := config.LoadConfig(file)
	if err == nil {
		return cfg
	}

	if errors.Is(err, fs.ErrNotExist) && file == DefaultConfFile {
		logger.Debug().Msgf("Configuration file %v not found, using defaults", file)

		cfg = config.Default()
		config.Check(&cfg)

		return cfg
	}

	logger.Fatal().Msgf("Error loading configuration: %v", err)

	return cfg
}

// runService runs a long-running front end (Discord bot or REST server) with systemd integration and a
// background version check.
func runService(ctx context.Context, cfg config.TomlConfig) error {
	if sysdnotify.IsEnabled() {
		logger.Debug().Msg("Detected and enabled systemd notify support")
	}

	var wgVersion sync.WaitGroup

	// self-check
	versionCheck(ctx, &wgVersion)
	defer wgVersion.Wait()

	startSystemdWatchdog(ctx)

	switch *mode {
	case modeDiscord:
		return runDiscord(ctx, cfg)
	default:
		return runHTTP(ctx, cfg)
	}
}

// startSystemdWatchdog sets up the systemd watchdog and sends periodic heartbeats until the context is cancelled.
func startSystemdWatchdog(ctx context.Context) {
	// systemd watchdog
	watchdog, _ := sysdwatchdog.New()
	if watchdog != nil {
		logger.Debug().Msg("Detected and enabled systemd watchdog support")

		go func() {
			ticker := watchdog.NewTicker()
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					_ = watchdog.SendHeartbeat()
				case <-ctx.Done():
					return
				}
			}
		}()
	}
}
