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
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

const (
	DefaultConfFile = ".plato-bot.toml" // default configuration filename
	envVarPrefix    = "PLATO_BOT"
	modeCLI         = "cli"
	modeDiscord     = "discord"
	modeHTTP        = "http"
)

var (
	modes = []string{modeCLI, modeDiscord, modeHTTP}

	debug, colorLogs, noPause                                         *bool
	confFile, mode, listen, username, password, cpuProfile, memProfile *string
)

// parseFlags parses input arguments and flags, every flag can also be set through PLATO_BOT_ prefixed
// environment variables.
func parseFlags() {
	fs := ff.NewFlagSet("plato-bot")

	debug = fs.Bool('v', "verbose", "enable verbose/debug log level")
	colorLogs = fs.Bool('l', "color", "enable colorized console logs")
	confFile = fs.String('f', "conffile", DefaultConfFile, "configuration file (in TOML)")
	mode = fs.String('m', "mode", modeCLI, "front end: "+strings.Join(modes, ", "))
	listen = fs.StringLong("listen", "", "REST listen address, overrides configuration (http mode)")
	username = fs.String('u', "username", "", "PLATO username, prompted for when empty (cli mode)")
	password = fs.StringLong("password", "", "PLATO password, prompted for when empty (cli mode)")
	noPause = fs.BoolLong("no-pause", "do not wait for a keypress before exiting (cli mode)")
	cpuProfile = fs.StringLong("cpuprofile", "", "CPU profile output file")
	memProfile = fs.StringLong("memprofile", "", "memory profile output file")

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix(envVarPrefix)); err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		fmt.Printf("Error: %v\n", err)

		os.Exit(1)
	}

	if !validMode(*mode) {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		fmt.Printf("Error: unknown mode %q\n", *mode)

		os.Exit(1)
	}
}

// validMode checks if the given front end name is known.
func validMode(m string) bool {
	return slices.Contains(modes, m)
}
