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
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/blang/semver/v4"
	"github.com/dkorunic/plato-bot/api"
	"github.com/dkorunic/plato-bot/config"
	"github.com/dkorunic/plato-bot/fetch"
	"github.com/dkorunic/plato-bot/format"
	"github.com/dkorunic/plato-bot/logger"
	"github.com/dkorunic/plato-bot/messenger"
	"github.com/dkorunic/plato-bot/msgtypes"
	"github.com/dkorunic/plato-bot/scrape"
	"github.com/google/go-github/v68/github"
	sysdnotify "github.com/iguanesolutions/go-systemd/v5/notify"
	"github.com/tj/go-spin"
)

const (
	spinnerRotateDelay = 100 * time.Millisecond // spinner delay
	githubOrg          = "dkorunic"
	githubRepo         = "plato-bot"
	serviceReady       = "Serving requests"
)

// Terminal front end messages.
const (
	banner           = "[PLATO Manager]"
	loadingMsg       = "학습 자료를 불러오는 중"
	loginFailedMsg   = "로그인에 실패했습니다."
	connFailedMsg    = "PLATO에 연결할 수 없습니다."
	fetchFailedMsg   = "학습 자료를 불러오지 못했습니다."
	failedCoursesMsg = "다음 강좌의 학습 자료를 불러오지 못했습니다:"
)

var (
	ErrDiscord         = errors.New("Discord bot issue") //nolint:stylecheck
	ErrHTTP            = errors.New("REST server issue")
	ErrDiscordDisabled = errors.New("Discord bot requires a token in the configuration") //nolint:stylecheck
	ErrCredentials     = errors.New("unable to read credentials")
	ErrReport          = errors.New("unable to fetch PLATO report")
)

// reportFunc binds session configuration to the scraping pipeline.
func reportFunc(cfg config.TomlConfig) msgtypes.ReportFunc {
	opts := cfg.FetchOptions()
	loc := cfg.Location()

	return func(ctx context.Context, username, password string) (msgtypes.Report, error) {
		return scrape.GetReport(ctx, opts, loc, username, password)
	}
}

// runCLI asks for credentials on the terminal, prints the report and waits for a keypress before exiting.
func runCLI(ctx context.Context, cfg config.TomlConfig) error {
	interactive := isTerminal()

	defer func() {
		if interactive && !*noPause {
			waitForKey(os.Stdin, os.Stdout)
		}
	}()

	fmt.Println(banner)
	fmt.Println()

	in := bufio.NewReader(os.Stdin)

	user := strings.TrimSpace(*username)
	if user == "" {
		var err error

		user, err = promptLine(in, os.Stdout, "PLATO ID: ")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCredentials, err)
		}
	}

	pass := *password
	if pass == "" {
		var err error

		pass, err = promptPassword(in, os.Stdin, os.Stdout, "Password: ")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCredentials, err)
		}
	}

	fmt.Println()

	spinCtx, stopSpinner := context.WithCancel(ctx)

	var wgSpinner sync.WaitGroup

	if interactive {
		wgSpinner.Add(1)

		go func() {
			defer wgSpinner.Done()

			spinner(spinCtx, loadingMsg)
		}()
	}

	r, err := reportFunc(cfg)(ctx, user, pass)

	stopSpinner()
	wgSpinner.Wait()

	if msg, fatal := cliErrorMessage(r, err); msg != "" {
		fmt.Println(msg)

		if fatal {
			return fmt.Errorf("%w: %w", ErrReport, err)
		}
	}

	fmt.Print(format.PlainMsg(r))

	if len(r.Failures) > 0 {
		fmt.Println(failedCoursesMsg)

		for _, f := range r.Failures {
			fmt.Printf(" - %v\n", f.Course.Name)
		}

		fmt.Println()
	}

	return nil
}

// cliErrorMessage maps a report error to a terminal message, fatal being true when there is no report to print.
func cliErrorMessage(r msgtypes.Report, err error) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, fetch.ErrInvalidCredentials):
		return loginFailedMsg, true
	case errors.Is(err, fetch.ErrConnectionFailed):
		return connFailedMsg, true
	case r.Empty() && len(r.Failures) == 0:
		return fetchFailedMsg, true
	}

	// partial report, failed courses are listed after it
	return "", false
}

// runDiscord serves the chat command until the context is cancelled.
func runDiscord(ctx context.Context, cfg config.TomlConfig) error {
	if !cfg.DiscordEnabled {
		return fmt.Errorf("%w", ErrDiscordDisabled)
	}

	bot, err := messenger.NewDiscord(ctx, cfg.DiscordOptions(), reportFunc(cfg))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDiscord, err)
	}

	_ = sysdnotify.Ready()
	_ = sysdnotify.Status(serviceReady)

	defer func() {
		_ = sysdnotify.Stopping()
	}()

	if err := bot.Run(); err != nil {
		return fmt.Errorf("%w: %w", ErrDiscord, err)
	}

	logger.Info().Msg("Discord bot stopped")

	return nil
}

// runHTTP serves the REST API until the context is cancelled.
func runHTTP(ctx context.Context, cfg config.TomlConfig) error {
	srv := api.NewServer(api.Options{
		Address: cfg.HTTP.Listen,
		Report:  reportFunc(cfg),
	})

	_ = sysdnotify.Ready()
	_ = sysdnotify.Status(serviceReady)

	defer func() {
		_ = sysdnotify.Stopping()
	}()

	if err := srv.Serve(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrHTTP, err)
	}

	return nil
}

// spinner displays a rotating spinner with a message on stderr until the context is cancelled, then clears the
// line.
func spinner(ctx context.Context, msg string) {
	s := spin.New()

	ticker := time.NewTicker(spinnerRotateDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprint(os.Stderr, "\r\033[K")

			return
		case <-ticker.C:
			fmt.Fprintf(os.Stderr, "\r%v %v", msg, s.Next())
		}
	}
}

// parseTag semver-parses a release tag with an optional leading "v".
func parseTag(tag string) (semver.Version, error) {
	return semver.Parse(strings.TrimPrefix(tag, "v"))
}

// versionCheck checks for updates by comparing the current version of the application with the latest version
// available on GitHub. If a newer version is available, it logs an informational message.
func versionCheck(ctx context.Context, wgVersion *sync.WaitGroup) {
	wgVersion.Add(1)

	go func() {
		defer wgVersion.Done()

		// if we don't have a tag or if it is a local source-build, we don't need to check for updates
		if GitTag == "" || GitDirty != "" {
			return
		}

		currentTag, err := parseTag(GitTag)
		if err != nil {
			logger.Error().Msgf("Unable to parse current version of plato-bot: %v", err)

			return
		}

		client := github.NewClient(nil)

		// get latest release from GitHub
		latestRelease, _, err := client.Repositories.GetLatestRelease(ctx, githubOrg, githubRepo)
		if err != nil {
			logger.Warn().Msgf("Unable to check latest version of plato-bot: %v", err)

			return
		}

		latestTag, err := parseTag(latestRelease.GetTagName())
		if err != nil {
			logger.Error().Msgf("Unable to parse latest version of plato-bot: %v", err)

			return
		}

		if currentTag.LT(latestTag) {
			logger.Info().Msgf("Newer plato-bot version %v is available at %v", latestTag,
				latestRelease.GetHTMLURL())
		}
	}()
}
