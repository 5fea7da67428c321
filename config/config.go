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

// Package config loads and validates TOML configuration.
package config

import (
	"time"
	_ "time/tzdata" // timezone database for minimal containers

	"github.com/BurntSushi/toml"
	"github.com/dkorunic/plato-bot/api"
	"github.com/dkorunic/plato-bot/fetch"
	"github.com/dkorunic/plato-bot/logger"
	"github.com/dkorunic/plato-bot/messenger"
)

const DefaultTimezone = "Asia/Seoul"

// Default returns built-in configuration used when no configuration file exists.
func Default() TomlConfig {
	return TomlConfig{
		Plato: Plato{
			BaseURL:            fetch.DefaultBaseURL,
			Timezone:           DefaultTimezone,
			Timeout:            fetch.DefaultTimeout,
			InsecureSkipVerify: true,
		},
		Discord: Discord{
			Command:       messenger.DefaultCommand,
			PromptTimeout: messenger.DefaultPromptTimeout,
			Retries:       messenger.DefaultDiscordRetries,
		},
		HTTP: HTTP{
			Listen: api.DefaultAddress,
		},
	}
}

// LoadConfig attempts to load and decode configuration file in TOML format over built-in defaults, doing a
// minimal sanity checking and optionally returning an error.
func LoadConfig(file string) (TomlConfig, error) {
	config := Default()
	if _, err := toml.DecodeFile(file, &config); err != nil {
		return config, err
	}

	Check(&config)

	return config, nil
}

// Check runs all configuration block checks.
func Check(config *TomlConfig) {
	checkPlatoConf(config)
	checkDiscordConf(config)
	checkHTTPConf(config)
}

// Location returns the configured PLATO timezone, falling back to the local one.
func (c TomlConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Plato.Timezone)
	if err != nil {
		return time.Local
	}

	return loc
}

// FetchOptions returns PLATO session options.
func (c TomlConfig) FetchOptions() fetch.Options {
	return fetch.Options{
		BaseURL:            c.Plato.BaseURL,
		UserAgent:          c.Plato.UserAgent,
		Timeout:            c.Plato.Timeout,
		InsecureSkipVerify: c.Plato.InsecureSkipVerify,
	}
}

// DiscordOptions returns Discord bot options.
func (c TomlConfig) DiscordOptions() messenger.DiscordOptions {
	return messenger.DiscordOptions{
		Token:         c.Discord.Token,
		Command:       c.Discord.Command,
		PromptTimeout: c.Discord.PromptTimeout,
		Retries:       c.Discord.Retries,
	}
}

// checkPlatoConf does a minimal sanity check on the PLATO configuration block, ensuring that:
//
// 1. the base URL is an absolute http(s) URL
//
// 2. the timezone is known
//
// 3. the request timeout is positive
//
// If any of these conditions are not met, the program will log a fatal error and exit.
func checkPlatoConf(config *TomlConfig) {
	if !isValidBaseURL(config.Plato.BaseURL) {
		logger.Fatal().Msgf("Configuration error: PLATO base URL %q is not valid", config.Plato.BaseURL)
	}

	if !isValidTimezone(config.Plato.Timezone) {
		logger.Fatal().Msgf("Configuration error: timezone %q is not valid", config.Plato.Timezone)
	}

	if config.Plato.Timeout <= 0 {
		logger.Fatal().Msgf("Configuration error: PLATO timeout %v must be positive", config.Plato.Timeout)
	}

	if config.Plato.InsecureSkipVerify {
		logger.Debug().Msg("Configuration: TLS certificate verification for PLATO disabled")
	}
}

// checkDiscordConf performs a minimal sanity check on the Discord configuration block, ensuring that:
//
// 1. the Discord token is valid, if defined
//
// 2. the command is a single word
//
// 3. the prompt timeout is positive
//
// If all conditions are met and a token is defined, the DiscordEnabled field is set to true.
func checkDiscordConf(config *TomlConfig) {
	if config.Discord.Token == "" {
		return
	}

	if !isValidDiscordToken(config.Discord.Token) {
		logger.Fatal().Msg("Configuration error: Discord token is not valid")
	}

	if !isValidCommand(config.Discord.Command) {
		logger.Fatal().Msgf("Configuration error: Discord command %q is not a single word", config.Discord.Command)
	}

	if config.Discord.PromptTimeout <= 0 {
		logger.Fatal().Msgf("Configuration error: Discord prompt timeout %v must be positive",
			config.Discord.PromptTimeout)
	}

	logger.Info().Msg("Configuration: Discord bot enabled")

	config.DiscordEnabled = true
}

// checkHTTPConf ensures the REST listen address is in host:port format.
func checkHTTPConf(config *TomlConfig) {
	if !isValidListen(config.HTTP.Listen) {
		logger.Fatal().Msgf("Configuration error: HTTP listen address %q is not in host:port format",
			config.HTTP.Listen)
	}
}
